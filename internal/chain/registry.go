package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrUnavailable marks registry failures (RPC down, wrong network, missing
// registry). Callers must not confuse it with "wallet has no badge", which
// is a nil record with a nil error.
var ErrUnavailable = errors.New("attestation registry unavailable")

// Record is a wallet's verified-badge entry as stored on chain. Read-only
// from this system's perspective; never cached between authorization checks.
type Record struct {
	Value      string
	VerifiedAt time.Time
	IsActive   bool
}

type Reader interface {
	// GetRecord returns (nil, nil) when the wallet has no badge of the
	// given type. An inactive record comes back with IsActive=false;
	// callers must treat it as "no badge", never as an error.
	GetRecord(ctx context.Context, attestationType, walletAddress string) (*Record, error)
}

const registryABI = `[{"name":"getRecord","type":"function","stateMutability":"view","inputs":[{"name":"wallet","type":"address"}],"outputs":[{"name":"value","type":"string"},{"name":"verifiedAt","type":"uint64"},{"name":"active","type":"bool"}]}]`

type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// RegistryReader does one eth_call per check against the registry contract
// for the requested attestation type.
type RegistryReader struct {
	client     contractCaller
	registries map[string]common.Address
	abi        abi.ABI
}

func NewRegistryReader(rpcURL string, registries map[string]string) (*RegistryReader, error) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, err
	}

	byType := make(map[string]common.Address, len(registries))
	for t, addr := range registries {
		if addr == "" {
			continue
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid registry address for %s: %s", t, addr)
		}
		byType[t] = common.HexToAddress(addr)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, err
	}

	return &RegistryReader{client: client, registries: byType, abi: parsed}, nil
}

func (r *RegistryReader) GetRecord(ctx context.Context, attestationType, walletAddress string) (*Record, error) {
	registry, ok := r.registries[attestationType]
	if !ok {
		return nil, fmt.Errorf("%w: no registry configured for %q", ErrUnavailable, attestationType)
	}

	data, err := r.abi.Pack("getRecord", common.HexToAddress(walletAddress))
	if err != nil {
		return nil, err
	}

	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &registry, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	vals, err := r.abi.Unpack("getRecord", out)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("%w: unexpected getRecord output", ErrUnavailable)
	}

	value, _ := vals[0].(string)
	verifiedAt, _ := vals[1].(uint64)
	active, _ := vals[2].(bool)

	// An empty record means the wallet was never attested.
	if value == "" {
		return nil, nil
	}

	return &Record{
		Value:      value,
		VerifiedAt: time.Unix(int64(verifiedAt), 0).UTC(),
		IsActive:   active,
	}, nil
}
