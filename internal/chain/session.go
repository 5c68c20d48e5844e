package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNoSigner is returned when a state-changing call or an owner-scoped
// query is attempted over a read-only session.
var ErrNoSigner = errors.New("session has no signer")

// Session pairs a chain client with an optional signer. A session without a
// signer can read contract state but cannot submit transactions or answer
// for an account address.
type Session struct {
	client *Client
	signer *Signer
}

// NewSession builds a session. signer may be nil for read-only use.
func NewSession(client *Client, signer *Signer) *Session {
	return &Session{client: client, signer: signer}
}

// CanSign reports whether the session can submit transactions.
func (s *Session) CanSign() bool {
	return s.signer != nil
}

// From returns the signing account's address.
func (s *Session) From() (common.Address, error) {
	if s.signer == nil {
		return common.Address{}, ErrNoSigner
	}
	return s.signer.Address(), nil
}

// ChainID returns the connected chain's ID.
func (s *Session) ChainID(ctx context.Context) (*big.Int, error) {
	if s.signer != nil {
		return s.signer.ChainID(), nil
	}
	return s.client.ChainID(ctx)
}

// CallContract performs a read-only contract call.
func (s *Session) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return s.client.CallContract(ctx, msg, blockNumber)
}

// Transact signs and submits calldata to a contract, then waits for the
// transaction to be mined. The receipt of the mined transaction is returned.
func (s *Session) Transact(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	if s.signer == nil {
		return nil, ErrNoSigner
	}

	from := s.signer.Address()

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		To:       &to,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signed, err := s.signer.SignTx(tx)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}

	return s.client.WaitMined(ctx, signed)
}
