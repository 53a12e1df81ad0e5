package provenance

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"

	"github.com/deflogis/convoy/internal/config"
)

const convoyLogABI = `[{"inputs":[{"internalType":"string","name":"_convoyId","type":"string"},{"internalType":"string","name":"_ipfsCid","type":"string"},{"internalType":"string","name":"_routeHash","type":"string"}],"name":"logRoute","outputs":[],"stateMutability":"nonpayable","type":"function"}]`

var convoyABI = mustParseABI(convoyLogABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("parse convoy log ABI: " + err.Error())
	}
	return parsed
}

// ethBackend is the slice of the ledger node RPC surface the client needs.
// *ethclient.Client satisfies it; tests use a stub.
type ethBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// LedgerClient records (convoyId, ipfsCid, routeHash) triples on the convoy
// log contract. The signing key never leaves the process; transactions are
// signed locally and submitted raw.
type LedgerClient struct {
	backend        ethBackend
	contract       common.Address
	key            *ecdsa.PrivateKey
	from           common.Address
	gasLimit       uint64
	gasPrice       *big.Int
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         zerolog.Logger

	// mu serializes nonce-fetch through submit. Two concurrent deployments
	// sharing this signing account would otherwise race to the same nonce.
	mu      sync.Mutex
	chainID *big.Int
}

// NewLedgerClient builds a ledger client from configuration. When the RPC
// endpoint, contract address or signing key is absent the returned client is
// unconfigured: LogRoute fails fast with ErrLedgerUnavailable and never
// touches the network.
func NewLedgerClient(cfg *config.Config, logger zerolog.Logger) (*LedgerClient, error) {
	c := &LedgerClient{
		gasLimit:       cfg.LedgerGasLimit,
		gasPrice:       new(big.Int).Mul(big.NewInt(cfg.LedgerGasPriceGwei), big.NewInt(params.GWei)),
		confirmTimeout: cfg.LedgerConfirmTimeout,
		pollInterval:   2 * time.Second,
		logger:         logger.With().Str("component", "ledger-client").Logger(),
	}

	if !cfg.LedgerConfigured() {
		logger.Warn().Msg("ledger logging disabled (missing RPC URL, contract address or signing key)")
		return c, nil
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	client, err := ethclient.Dial(cfg.EthereumRPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger RPC: %w", err)
	}

	c.backend = client
	c.contract = common.HexToAddress(cfg.ContractAddress)
	c.key = key
	c.from = crypto.PubkeyToAddress(key.PublicKey)
	return c, nil
}

// Configured reports whether the client can reach a ledger.
func (c *LedgerClient) Configured() bool {
	return c.backend != nil
}

// LogRoute submits a logRoute transaction and blocks until it is mined.
// Returns the transaction hash in hex on confirmed success.
func (c *LedgerClient) LogRoute(ctx context.Context, convoyID, ipfsCID, routeHash string) (string, error) {
	if c.backend == nil {
		return "", ErrLedgerUnavailable
	}

	data, err := convoyABI.Pack("logRoute", convoyID, ipfsCID, routeHash)
	if err != nil {
		return "", fmt.Errorf("pack logRoute call: %w", err)
	}

	signed, err := c.signAndSubmit(ctx, data)
	if err != nil {
		return "", err
	}

	txHash := signed.Hash()
	c.logger.Info().Str("tx", txHash.Hex()).Str("convoy_id", convoyID).Msg("transaction submitted, awaiting receipt")

	receipt, err := c.waitReceipt(ctx, txHash)
	if err != nil {
		return "", &ConfirmationError{TxHash: txHash.Hex(), Err: err}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", &ConfirmationError{TxHash: txHash.Hex()}
	}

	return txHash.Hex(), nil
}

// signAndSubmit holds the account lock from nonce fetch until the raw
// transaction has been handed to the node, so concurrent deployments cannot
// reuse a nonce.
func (c *LedgerClient) signAndSubmit(ctx context.Context, data []byte) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID == nil {
		chainID, err := c.backend.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch chain id: %w", err)
		}
		c.chainID = chainID
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}

	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), c.gasLimit, c.gasPrice, data)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("submit transaction: %w", err)
	}
	return signed, nil
}

func (c *LedgerClient) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetch receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("confirmation wait: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
