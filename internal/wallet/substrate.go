package wallet

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"myriad-tipping-go/internal/models"
	"myriad-tipping-go/internal/signer"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Storage key prefixes: twox128(pallet) ++ twox128(item).
const (
	systemAccountPrefix = "26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"
	assetsAccountPrefix = "682a59d51ab9e48a8c8cc418ff9708d2b99d880ec681799c0cf30e8886371da9"
	assetsAssetPrefix   = "682a59d51ab9e48a8c8cc418ff9708d2d1bd1e9a1497b8c8f3b3a4e1c12a4f32"
)

// SCALE layout offsets of the u128 fields this adapter reads.
const (
	// AccountInfo: nonce u32, consumers u32, providers u32, sufficients
	// u32, then AccountData beginning with free.
	accountFreeOffset = 16
	// AssetAccount starts with balance.
	assetBalanceOffset = 0
	// AssetDetails: owner, issuer, admin, freezer (32 bytes each), supply
	// u128, deposit u128, then min_balance.
	assetMinBalanceOffset = 160
)

type substrateProvider struct {
	network models.Network
	signer  signer.Signer
	rpc     *wsClient

	// last observed balances per storage key, for delta computation
	lastMu sync.Mutex
	last   map[string]decimal.Decimal
}

func newSubstrateProvider(ctx context.Context, network models.Network, s signer.Signer, rpcTimeout time.Duration) (*substrateProvider, error) {
	rpc, err := dialRPC(ctx, network.RPCURL, rpcTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to substrate node: %w", err)
	}

	zap.L().Info("Connected to substrate node",
		zap.String("network", network.ID),
		zap.String("rpc_url", network.RPCURL))

	return &substrateProvider{
		network: network,
		signer:  s,
		rpc:     rpc,
		last:    make(map[string]decimal.Decimal),
	}, nil
}

func (p *substrateProvider) AccountID() string {
	return p.signer.Address()
}

func (p *substrateProvider) transferRequest(detail *models.WalletDetail, amount decimal.Decimal, currency models.Currency, memo string) signer.TransferRequest {
	return signer.TransferRequest{
		NetworkID:           p.network.ID,
		To:                  detail.ReferenceID,
		Amount:              amount,
		CurrencyReferenceID: currency.ReferenceID,
		Memo:                memo,
	}
}

// runtimeDispatchInfo is the payment_queryInfo response. partialFee arrives
// as a decimal string on recent nodes and as a hex string on older ones.
type runtimeDispatchInfo struct {
	PartialFee json.RawMessage `json:"partialFee"`
}

func (p *substrateProvider) EstimateFee(ctx context.Context, detail *models.WalletDetail, currency models.Currency) (FeeInfo, error) {
	unsigned, err := p.signer.BuildTransfer(ctx, p.transferRequest(detail, decimal.Zero, currency, ""))
	if err != nil {
		return FeeInfo{}, fmt.Errorf("unable to build transfer for fee query: %w", err)
	}

	var info runtimeDispatchInfo
	if err := p.rpc.call(ctx, "payment_queryInfo", []any{unsigned}, &info); err != nil {
		return FeeInfo{}, err
	}

	fee, err := parseChainNumeric(info.PartialFee)
	if err != nil {
		return FeeInfo{}, fmt.Errorf("unable to parse partialFee: %w", err)
	}
	return FeeInfo{PartialFee: fee}, nil
}

func (p *substrateProvider) AssetMinBalance(ctx context.Context, currency models.Currency) (FeeInfo, error) {
	if currency.Native {
		base, err := p.existentialDeposit(currency)
		if err != nil {
			return FeeInfo{}, err
		}
		return FeeInfo{PartialFee: base}, nil
	}

	assetID, err := parseAssetID(currency.ReferenceID)
	if err != nil {
		return FeeInfo{}, err
	}

	raw, err := p.storage(ctx, assetsAssetKey(assetID))
	if err != nil {
		return FeeInfo{}, err
	}
	if raw == "" {
		// asset not registered on chain
		return FeeInfo{PartialFee: decimal.Zero}, nil
	}

	minBalance, err := decodeU128(raw, assetMinBalanceOffset)
	if err != nil {
		return FeeInfo{}, fmt.Errorf("unable to decode asset details: %w", err)
	}
	return FeeInfo{PartialFee: minBalance}, nil
}

func (p *substrateProvider) existentialDeposit(currency models.Currency) (decimal.Decimal, error) {
	base := currency.MinDeposit().Shift(currency.Decimals)
	if !base.Equal(base.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("existential deposit %s is not representable in %d decimals", currency.ExistentialDeposit, currency.Decimals)
	}
	return base, nil
}

func (p *substrateProvider) balanceStorageKey(currency models.Currency) (key string, offset int, err error) {
	pubkey, err := ss58Decode(p.signer.Address())
	if err != nil {
		return "", 0, fmt.Errorf("invalid account address: %w", err)
	}

	if currency.Native {
		return systemAccountKey(pubkey), accountFreeOffset, nil
	}

	assetID, err := parseAssetID(currency.ReferenceID)
	if err != nil {
		return "", 0, err
	}
	return assetsAccountKey(assetID, pubkey), assetBalanceOffset, nil
}

func (p *substrateProvider) FreeBalance(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	key, offset, err := p.balanceStorageKey(currency)
	if err != nil {
		return decimal.Zero, err
	}

	raw, err := p.storage(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	if raw == "" {
		// account has no on-chain entry yet
		return decimal.Zero, nil
	}

	free, err := decodeU128(raw, offset)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to decode account balance: %w", err)
	}

	p.lastMu.Lock()
	p.last[key] = free
	p.lastMu.Unlock()

	return free, nil
}

// storageChangeSet is one state_subscribeStorage notification.
type storageChangeSet struct {
	Block   string      `json:"block"`
	Changes [][2]string `json:"changes"`
}

func (p *substrateProvider) SubscribeBalance(ctx context.Context, currency models.Currency, onChange func(delta decimal.Decimal)) (func(), error) {
	key, offset, err := p.balanceStorageKey(currency)
	if err != nil {
		return nil, err
	}

	// Prime the last-seen value so the first push yields a proper delta.
	if _, err := p.FreeBalance(ctx, currency); err != nil {
		return nil, err
	}

	handler := func(raw json.RawMessage) {
		var change storageChangeSet
		if err := json.Unmarshal(raw, &change); err != nil {
			zap.L().Warn("Unparseable storage change notification",
				zap.String("currency", currency.ID),
				zap.Error(err))
			return
		}

		for _, pair := range change.Changes {
			if pair[0] != key || pair[1] == "" {
				continue
			}
			free, err := decodeU128(pair[1], offset)
			if err != nil {
				zap.L().Warn("Unable to decode pushed balance",
					zap.String("currency", currency.ID),
					zap.Error(err))
				continue
			}

			p.lastMu.Lock()
			delta := free.Sub(p.last[key])
			p.last[key] = free
			p.lastMu.Unlock()

			if !delta.IsZero() {
				onChange(delta)
			}
		}
	}

	return p.rpc.subscribe(ctx, "state_subscribeStorage", "state_unsubscribeStorage", []any{[]string{key}}, handler)
}

func (p *substrateProvider) SignTippingTransaction(ctx context.Context, detail *models.WalletDetail, amount decimal.Decimal, currency models.Currency, memo string, onStatus signer.StatusFunc) (string, error) {
	notifySignerOpened(onStatus)

	signed, err := p.signer.SignTransfer(ctx, p.transferRequest(detail, amount, currency, memo))
	if err != nil {
		return "", err
	}
	if signed == "" {
		// user dismissed the signing prompt
		return "", nil
	}

	return p.submit(ctx, signed)
}

func (p *substrateProvider) PayTransactionFee(ctx context.Context, info models.TipsBalanceInfo, amount decimal.Decimal, onStatus signer.StatusFunc) (string, error) {
	notifySignerOpened(onStatus)

	signed, err := p.signer.SignClaimFee(ctx, signer.ClaimFeeRequest{
		NetworkID:   p.network.ID,
		TipsBalance: info,
		Amount:      amount,
	})
	if err != nil {
		return "", err
	}
	if signed == "" {
		return "", nil
	}

	return p.submit(ctx, signed)
}

func (p *substrateProvider) submit(ctx context.Context, signed string) (string, error) {
	var hash string
	if err := p.rpc.call(ctx, "author_submitExtrinsic", []any{signed}, &hash); err != nil {
		return "", fmt.Errorf("unable to submit extrinsic: %w", err)
	}
	return hash, nil
}

func (p *substrateProvider) storage(ctx context.Context, key string) (string, error) {
	var raw *string
	if err := p.rpc.call(ctx, "state_getStorage", []any{key}, &raw); err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}
	return *raw, nil
}

func (p *substrateProvider) Close() error {
	return p.rpc.close()
}

// ss58Decode extracts the 32-byte public key from an SS58 address and
// verifies its checksum.
func ss58Decode(address string) ([]byte, error) {
	data, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("invalid SS58 address: %w", err)
	}

	prefixLen := 1
	if len(data) > 0 && data[0] >= 64 {
		prefixLen = 2
	}
	if len(data) != prefixLen+32+2 {
		return nil, fmt.Errorf("invalid SS58 address length %d", len(data))
	}

	body := data[:len(data)-2]
	checksum := data[len(data)-2:]

	hasher, err := blake2b.New512(nil)
	if err != nil {
		return nil, err
	}
	hasher.Write([]byte("SS58PRE"))
	hasher.Write(body)
	digest := hasher.Sum(nil)
	if digest[0] != checksum[0] || digest[1] != checksum[1] {
		return nil, fmt.Errorf("SS58 checksum mismatch")
	}

	return data[prefixLen : prefixLen+32], nil
}

func blake2b128Concat(data []byte) []byte {
	hasher, _ := blake2b.New(16, nil)
	hasher.Write(data)
	return append(hasher.Sum(nil), data...)
}

func systemAccountKey(pubkey []byte) string {
	return "0x" + systemAccountPrefix + hex.EncodeToString(blake2b128Concat(pubkey))
}

func assetsAccountKey(assetID uint32, pubkey []byte) string {
	return "0x" + assetsAccountPrefix +
		hex.EncodeToString(blake2b128Concat(scaleU32(assetID))) +
		hex.EncodeToString(blake2b128Concat(pubkey))
}

func assetsAssetKey(assetID uint32) string {
	return "0x" + assetsAssetPrefix + hex.EncodeToString(blake2b128Concat(scaleU32(assetID)))
}

func scaleU32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

func parseAssetID(referenceID string) (uint32, error) {
	id, err := strconv.ParseUint(referenceID, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid asset reference id %q: %w", referenceID, err)
	}
	return uint32(id), nil
}

// decodeU128 reads a little-endian u128 at the given byte offset of a
// hex-encoded storage value.
func decodeU128(hexValue string, offset int) (decimal.Decimal, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexValue, "0x"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid storage hex: %w", err)
	}
	if len(raw) < offset+16 {
		return decimal.Zero, fmt.Errorf("storage value too short: %d bytes, need %d", len(raw), offset+16)
	}

	le := raw[offset : offset+16]
	be := make([]byte, 16)
	for i := range le {
		be[15-i] = le[i]
	}
	return decimal.NewFromBigInt(new(big.Int).SetBytes(be), 0), nil
}

// parseChainNumeric accepts a JSON number, a decimal string, or a 0x hex
// string and returns it as an integer decimal.
func parseChainNumeric(raw json.RawMessage) (decimal.Decimal, error) {
	value := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if value == "" || value == "null" {
		return decimal.Zero, fmt.Errorf("empty numeric value")
	}

	if strings.HasPrefix(value, "0x") {
		n, ok := new(big.Int).SetString(strings.TrimPrefix(value, "0x"), 16)
		if !ok {
			return decimal.Zero, fmt.Errorf("invalid hex numeric %q", value)
		}
		return decimal.NewFromBigInt(n, 0), nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid numeric %q: %w", value, err)
	}
	return d, nil
}
