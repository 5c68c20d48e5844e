package farm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSingleAssetDepositTakesExactlyOneAmount(t *testing.T) {
	fb := newFakeBackend()
	a := common.HexToAddress("0xA0")
	b := common.HexToAddress("0xA1")
	vault := NewVault(fb, 1, common.HexToAddress("0xB0"), 6, []common.Address{a}, "single")

	_, err := vault.Deposit(context.Background(), []TokenAmount{
		{Token: a, Amount: big.NewInt(10)},
		{Token: b, Amount: big.NewInt(20)},
	})
	if !errors.Is(err, ErrInvalidTokenAmounts) {
		t.Fatalf("got %v, want ErrInvalidTokenAmounts", err)
	}
	if fb.txCount() != 0 {
		t.Fatalf("%d transactions submitted, want none", fb.txCount())
	}
}

func TestSingleAssetDeposit(t *testing.T) {
	fb := newFakeBackend()
	a := common.HexToAddress("0xA0")
	vaultAddr := common.HexToAddress("0xB0")
	fb.underlying[vaultAddr] = a
	fb.setBalance(a, fb.from, big.NewInt(100))

	vault := NewVault(fb, 1, vaultAddr, 6, []common.Address{a}, "single")
	if _, err := vault.Deposit(context.Background(), []TokenAmount{{Token: a, Amount: big.NewInt(100)}}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if got := fb.balance(vaultAddr, fb.from); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("share balance = %s, want 100", got)
	}
	if got := fb.balance(a, fb.from); got.Sign() != 0 {
		t.Fatalf("underlying balance = %s, want 0", got)
	}
}

func TestRangeDepositRequiresBothAssets(t *testing.T) {
	fb := newFakeBackend()
	a := common.HexToAddress("0xA0")
	b := common.HexToAddress("0xA1")
	vaultAddr := common.HexToAddress("0xB1")
	fb.rangeTokens[vaultAddr] = [2]common.Address{a, b}

	vault := NewVault(fb, 1, vaultAddr, 18, []common.Address{a, b}, "range")
	_, err := vault.Deposit(context.Background(), []TokenAmount{{Token: a, Amount: big.NewInt(10)}})
	if !errors.Is(err, ErrInvalidTokenAmounts) {
		t.Fatalf("got %v, want ErrInvalidTokenAmounts", err)
	}
	if fb.txCount() != 0 {
		t.Fatalf("%d transactions submitted, want none", fb.txCount())
	}
}

func TestRangeDepositMintsForBothAssets(t *testing.T) {
	fb := newFakeBackend()
	a := common.HexToAddress("0xA0")
	b := common.HexToAddress("0xA1")
	vaultAddr := common.HexToAddress("0xB1")
	fb.rangeTokens[vaultAddr] = [2]common.Address{a, b}
	fb.sqrtPrices[vaultAddr] = big.NewInt(79228)

	vault := NewVault(fb, 1, vaultAddr, 18, []common.Address{a, b}, "range")
	_, err := vault.Deposit(context.Background(), []TokenAmount{
		{Token: b, Amount: big.NewInt(20)},
		{Token: a, Amount: big.NewInt(10)},
	})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if fb.txCount() != 1 || fb.txs[0].method != "deposit" {
		t.Fatalf("txs = %+v, want one deposit", fb.txs)
	}
	if got := fb.balance(vaultAddr, fb.from); got.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("share balance = %s, want 30", got)
	}
}

func TestRangeWithdraw(t *testing.T) {
	fb := newFakeBackend()
	a := common.HexToAddress("0xA0")
	b := common.HexToAddress("0xA1")
	vaultAddr := common.HexToAddress("0xB1")
	fb.rangeTokens[vaultAddr] = [2]common.Address{a, b}
	fb.setBalance(vaultAddr, fb.from, big.NewInt(30))

	vault := NewVault(fb, 1, vaultAddr, 18, []common.Address{a, b}, "range")
	if _, err := vault.Withdraw(context.Background(), big.NewInt(5)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got := fb.balance(vaultAddr, fb.from); got.Cmp(big.NewInt(25)) != 0 {
		t.Fatalf("share balance = %s, want 25", got)
	}
}

func TestSingleAssetWithdrawReturnsUnderlying(t *testing.T) {
	fb := newFakeBackend()
	a := common.HexToAddress("0xA0")
	vaultAddr := common.HexToAddress("0xB0")
	fb.underlying[vaultAddr] = a
	fb.setBalance(vaultAddr, fb.from, big.NewInt(40))

	vault := NewVault(fb, 1, vaultAddr, 6, []common.Address{a}, "single")
	if _, err := vault.Withdraw(context.Background(), big.NewInt(40)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if got := fb.balance(a, fb.from); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("underlying balance = %s, want 40", got)
	}
	if got := fb.balance(vaultAddr, fb.from); got.Sign() != 0 {
		t.Fatalf("share balance = %s, want 0", got)
	}
}
