package farm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestTokenBalanceOfReadsChain(t *testing.T) {
	fb := newFakeBackend()
	address := common.HexToAddress("0xA0")
	fb.setBalance(address, fb.from, big.NewInt(1234))

	token := NewToken(fb, 1, address, 6, "USDC", "USD Coin")
	if got := token.BalanceOf(context.Background(), fb.from); got.Cmp(big.NewInt(1234)) != 0 {
		t.Fatalf("BalanceOf = %s, want 1234", got)
	}
}

func TestTokenBalanceOfSwallowsFailures(t *testing.T) {
	fb := newFakeBackend()
	address := common.HexToAddress("0xA0")
	fb.setBalance(address, fb.from, big.NewInt(1234))
	fb.reverting[address] = true

	token := NewToken(fb, 1, address, 6, "USDC", "USD Coin")
	if got := token.BalanceOf(context.Background(), fb.from); got.Sign() != 0 {
		t.Fatalf("BalanceOf on reverting contract = %s, want 0", got)
	}
}

func TestTokenAllowancePropagatesFailures(t *testing.T) {
	fb := newFakeBackend()
	address := common.HexToAddress("0xA0")
	fb.reverting[address] = true

	token := NewToken(fb, 1, address, 6, "USDC", "USD Coin")
	if _, err := token.Allowance(context.Background(), fb.from, common.HexToAddress("0xB0")); err == nil {
		t.Fatal("expected an error from a reverting allowance read")
	}
}

func TestTokenApprove(t *testing.T) {
	fb := newFakeBackend()
	address := common.HexToAddress("0xA0")
	spender := common.HexToAddress("0xB0")

	token := NewToken(fb, 1, address, 6, "USDC", "USD Coin")
	receipt, err := token.Approve(context.Background(), spender, big.NewInt(500))
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if receipt.Status != 1 {
		t.Fatalf("receipt status = %d, want success", receipt.Status)
	}

	allowance, err := token.Allowance(context.Background(), fb.from, spender)
	if err != nil {
		t.Fatalf("Allowance: %v", err)
	}
	if allowance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("allowance = %s, want 500", allowance)
	}
}

func TestVaultSharePriceAndRedeemable(t *testing.T) {
	fb := newFakeBackend()
	address := common.HexToAddress("0xB0")
	// 1.5 underlying per share.
	fb.sharePrices[address] = new(big.Int).Mul(big.NewInt(15), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))

	vault := NewVault(fb, 1, address, 18, []common.Address{common.HexToAddress("0xA0")}, "vault")
	redeemable, err := vault.Redeemable(context.Background(), big.NewInt(10))
	if err != nil {
		t.Fatalf("Redeemable: %v", err)
	}
	if redeemable.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("Redeemable = %s, want 15", redeemable)
	}
}

func TestPoolEarned(t *testing.T) {
	fb := newFakeBackend()
	poolAddr := common.HexToAddress("0xC0")
	reward := common.HexToAddress("0xD0")
	fb.rewardToken[poolAddr] = reward
	fb.setEarned(poolAddr, fb.from, big.NewInt(77))

	pool := NewPool(fb, 1, poolAddr, common.HexToAddress("0xB0"), "pool", []common.Address{reward})
	got, err := pool.Earned(context.Background(), fb.from)
	if err != nil {
		t.Fatalf("Earned: %v", err)
	}
	if got.Amount.Cmp(big.NewInt(77)) != 0 {
		t.Fatalf("earned amount = %s, want 77", got.Amount)
	}
	if got.Token.Address != reward {
		t.Fatalf("reward token = %s, want %s", got.Token.Address.Hex(), reward.Hex())
	}
	if got.Token.Decimals != 18 {
		t.Fatalf("reward decimals = %d, want the live read", got.Token.Decimals)
	}
}

func TestPoolEarnedDefaultsToSigner(t *testing.T) {
	fb := newFakeBackend()
	poolAddr := common.HexToAddress("0xC0")
	reward := common.HexToAddress("0xD0")
	fb.rewardToken[poolAddr] = reward
	fb.setEarned(poolAddr, fb.from, big.NewInt(77))
	// Another account's accrual must not be picked up by the default.
	fb.setEarned(poolAddr, common.HexToAddress("0xEE"), big.NewInt(5))

	pool := NewPool(fb, 1, poolAddr, common.HexToAddress("0xB0"), "pool", []common.Address{reward})
	got, err := pool.Earned(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("Earned: %v", err)
	}
	if got.Amount.Cmp(big.NewInt(77)) != 0 {
		t.Fatalf("earned amount = %s, want the signer's 77", got.Amount)
	}
}

func TestPoolEarnedReadOnlyNeedsExplicitAddress(t *testing.T) {
	fb := newFakeBackend()
	fb.canSign = false
	poolAddr := common.HexToAddress("0xC0")
	fb.rewardToken[poolAddr] = common.HexToAddress("0xD0")

	pool := NewPool(fb, 1, poolAddr, common.HexToAddress("0xB0"), "pool", nil)
	if _, err := pool.Earned(context.Background(), common.Address{}); !errors.Is(err, ErrNoSigner) {
		t.Fatalf("got %v, want ErrNoSigner", err)
	}
}

func TestPoolClaimRewards(t *testing.T) {
	fb := newFakeBackend()
	poolAddr := common.HexToAddress("0xC0")
	reward := common.HexToAddress("0xD0")
	fb.rewardToken[poolAddr] = reward
	fb.setEarned(poolAddr, fb.from, big.NewInt(9))

	pool := NewPool(fb, 1, poolAddr, common.HexToAddress("0xB0"), "pool", []common.Address{reward})
	token, err := pool.ClaimRewards(context.Background())
	if err != nil {
		t.Fatalf("ClaimRewards: %v", err)
	}
	if token.Address != reward {
		t.Fatalf("claimed token = %s, want %s", token.Address.Hex(), reward.Hex())
	}
	if got := fb.balance(reward, fb.from); got.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("reward balance after claim = %s, want 9", got)
	}
}
