package farm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend simulates the contract layer in memory. It answers reads by
// decoding real calldata against the package ABIs and applies simple
// balance bookkeeping for transactions, so workflow tests exercise the
// exact encode/decode paths used against a live chain.
type fakeBackend struct {
	from    common.Address
	canSign bool
	chainID *big.Int

	kinds       map[common.Address]string // token, vault, rangeVault, pool
	balances    map[common.Address]map[common.Address]*big.Int
	allowances  map[common.Address]map[string]*big.Int
	decimals    map[common.Address]uint8
	sharePrices map[common.Address]*big.Int
	sqrtPrices  map[common.Address]*big.Int
	rangeTokens map[common.Address][2]common.Address
	underlying  map[common.Address]common.Address              // vault -> underlying token
	collateral  map[common.Address]common.Address              // pool -> vault
	rewardToken map[common.Address]common.Address              // pool -> reward token
	earned      map[common.Address]map[common.Address]*big.Int // pool -> owner -> unclaimed reward
	reverting   map[common.Address]bool

	txs []fakeTx
}

type fakeTx struct {
	to     common.Address
	method string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		from:        common.HexToAddress("0x00000000000000000000000000000000000bEEF1"),
		canSign:     true,
		chainID:     big.NewInt(1),
		kinds:       make(map[common.Address]string),
		balances:    make(map[common.Address]map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[string]*big.Int),
		decimals:    make(map[common.Address]uint8),
		sharePrices: make(map[common.Address]*big.Int),
		sqrtPrices:  make(map[common.Address]*big.Int),
		rangeTokens: make(map[common.Address][2]common.Address),
		underlying:  make(map[common.Address]common.Address),
		collateral:  make(map[common.Address]common.Address),
		rewardToken: make(map[common.Address]common.Address),
		earned:      make(map[common.Address]map[common.Address]*big.Int),
		reverting:   make(map[common.Address]bool),
	}
}

func (f *fakeBackend) From() (common.Address, error) {
	if !f.canSign {
		return common.Address{}, errors.New("read-only backend")
	}
	return f.from, nil
}

func (f *fakeBackend) CanSign() bool {
	return f.canSign
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeBackend) balance(contract, holder common.Address) *big.Int {
	if holders, ok := f.balances[contract]; ok {
		if amount, ok := holders[holder]; ok {
			return new(big.Int).Set(amount)
		}
	}
	return new(big.Int)
}

func (f *fakeBackend) setBalance(contract, holder common.Address, amount *big.Int) {
	if f.balances[contract] == nil {
		f.balances[contract] = make(map[common.Address]*big.Int)
	}
	f.balances[contract][holder] = new(big.Int).Set(amount)
}

func (f *fakeBackend) addBalance(contract, holder common.Address, delta *big.Int) {
	f.setBalance(contract, holder, new(big.Int).Add(f.balance(contract, holder), delta))
}

func (f *fakeBackend) subBalance(contract, holder common.Address, delta *big.Int) {
	f.setBalance(contract, holder, new(big.Int).Sub(f.balance(contract, holder), delta))
}

func allowanceKey(owner, spender common.Address) string {
	return strings.ToLower(owner.Hex()) + "|" + strings.ToLower(spender.Hex())
}

func (f *fakeBackend) allowance(contract, owner, spender common.Address) *big.Int {
	if entries, ok := f.allowances[contract]; ok {
		if amount, ok := entries[allowanceKey(owner, spender)]; ok {
			return new(big.Int).Set(amount)
		}
	}
	return new(big.Int)
}

func (f *fakeBackend) setAllowance(contract, owner, spender common.Address, amount *big.Int) {
	if f.allowances[contract] == nil {
		f.allowances[contract] = make(map[string]*big.Int)
	}
	f.allowances[contract][allowanceKey(owner, spender)] = new(big.Int).Set(amount)
}

func (f *fakeBackend) earnedOf(pool, owner common.Address) *big.Int {
	if owners, ok := f.earned[pool]; ok {
		if amount, ok := owners[owner]; ok {
			return new(big.Int).Set(amount)
		}
	}
	return new(big.Int)
}

func (f *fakeBackend) setEarned(pool, owner common.Address, amount *big.Int) {
	if f.earned[pool] == nil {
		f.earned[pool] = make(map[common.Address]*big.Int)
	}
	f.earned[pool][owner] = new(big.Int).Set(amount)
}

func (f *fakeBackend) methodByID(id []byte) (*abi.Method, error) {
	for _, load := range []func() (abi.ABI, error){Erc20ABI, VaultABI, RangeVaultABI, PoolABI} {
		parsed, err := load()
		if err != nil {
			return nil, err
		}
		if method, err := parsed.MethodById(id); err == nil {
			return method, nil
		}
	}
	return nil, fmt.Errorf("unknown method id %x", id)
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	to := *msg.To
	method, err := f.methodByID(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "balanceOf":
		if f.reverting[to] {
			return nil, errors.New("execution reverted")
		}
		return method.Outputs.Pack(f.balance(to, args[0].(common.Address)))
	case "allowance":
		if f.reverting[to] {
			return nil, errors.New("execution reverted")
		}
		return method.Outputs.Pack(f.allowance(to, args[0].(common.Address), args[1].(common.Address)))
	case "decimals":
		decimals := f.decimals[to]
		if decimals == 0 {
			decimals = 18
		}
		return method.Outputs.Pack(decimals)
	case "symbol", "name":
		return method.Outputs.Pack("FAKE")
	case "getPricePerFullShare":
		price := f.sharePrices[to]
		if price == nil {
			price = new(big.Int).Set(sharePriceScale)
		}
		return method.Outputs.Pack(price)
	case "getSqrtPriceX96":
		price := f.sqrtPrices[to]
		if price == nil {
			price = big.NewInt(1)
		}
		return method.Outputs.Pack(price)
	case "token0":
		return method.Outputs.Pack(f.rangeTokens[to][0])
	case "token1":
		return method.Outputs.Pack(f.rangeTokens[to][1])
	case "rewardToken":
		return method.Outputs.Pack(f.rewardToken[to])
	case "earned":
		return method.Outputs.Pack(f.earnedOf(to, args[0].(common.Address)))
	case "underlying":
		return method.Outputs.Pack(f.underlying[to])
	}
	return nil, fmt.Errorf("unhandled call %s", method.Name)
}

func (f *fakeBackend) Transact(_ context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	if !f.canSign {
		return nil, errors.New("read-only backend")
	}
	method, err := f.methodByID(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	f.txs = append(f.txs, fakeTx{to: to, method: method.Name})

	switch method.Name {
	case "approve":
		f.setAllowance(to, f.from, args[0].(common.Address), args[1].(*big.Int))
	case "deposit":
		if len(args) == 1 {
			amount := args[0].(*big.Int)
			token := f.underlying[to]
			f.subBalance(token, f.from, amount)
			f.setAllowance(token, f.from, to, new(big.Int).Sub(f.allowance(token, f.from, to), amount))
			f.addBalance(to, f.from, amount)
		} else {
			minted := new(big.Int).Add(args[0].(*big.Int), args[1].(*big.Int))
			f.addBalance(to, f.from, minted)
		}
	case "withdraw":
		amount := args[0].(*big.Int)
		switch {
		case f.kinds[to] == "pool":
			f.subBalance(to, f.from, amount)
			f.addBalance(f.collateral[to], f.from, amount)
		case len(args) == 1:
			f.subBalance(to, f.from, amount)
			f.addBalance(f.underlying[to], f.from, amount)
		default:
			f.subBalance(to, f.from, amount)
		}
	case "stake":
		amount := args[0].(*big.Int)
		f.subBalance(f.collateral[to], f.from, amount)
		f.addBalance(to, f.from, amount)
	case "getReward":
		if reward, ok := f.rewardToken[to]; ok {
			if earned := f.earnedOf(to, f.from); earned.Sign() > 0 {
				f.addBalance(reward, f.from, earned)
				f.setEarned(to, f.from, new(big.Int))
			}
		}
	default:
		return nil, fmt.Errorf("unhandled transact %s", method.Name)
	}

	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.Hash{0x1}}, nil
}

func (f *fakeBackend) txCount() int {
	return len(f.txs)
}

// staticSource serves prebuilt catalogs.
type staticSource struct {
	tokens *Tokens
	vaults *Vaults
	pools  *Pools
}

func (s staticSource) Tokens(context.Context, Backend, uint64) (*Tokens, error) {
	return s.tokens, nil
}

func (s staticSource) Vaults(context.Context, Backend, uint64) (*Vaults, error) {
	return s.vaults, nil
}

func (s staticSource) Pools(context.Context, Backend, uint64) (*Pools, error) {
	return s.pools, nil
}
