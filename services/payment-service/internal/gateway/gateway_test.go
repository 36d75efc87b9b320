package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedGatewayDeterministicWithSeed(t *testing.T) {
	charge := func() []bool {
		g := NewSimulatedGateway(42)
		var out []bool
		for i := 0; i < 50; i++ {
			res, err := g.Charge(context.Background(), ChargeRequest{
				OrderID:       "o1",
				AmountCents:   9999,
				PaymentMethod: "credit_card",
			})
			require.NoError(t, err)
			out = append(out, res.Succeeded)
		}
		return out
	}
	assert.Equal(t, charge(), charge(), "same seed, same outcomes")
}

func TestSimulatedGatewayResultShape(t *testing.T) {
	g := NewSimulatedGateway(7)
	seenFailure := false
	for i := 0; i < 200 && !seenFailure; i++ {
		res, err := g.Charge(context.Background(), ChargeRequest{
			OrderID:       "o1",
			AmountCents:   9999,
			PaymentMethod: "crypto",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, res.PaymentID)
		if !res.Succeeded {
			seenFailure = true
			assert.Contains(t, methodFailureReasons["crypto"], res.FailureReason)
		}
	}
	assert.True(t, seenFailure, "crypto declines often enough to observe a failure")
}

func TestSimulatedGatewayUnknownMethod(t *testing.T) {
	g := NewSimulatedGateway(1)
	res, err := g.Charge(context.Background(), ChargeRequest{
		OrderID:       "o1",
		AmountCents:   1000,
		PaymentMethod: "carrier_pigeon",
	})
	require.NoError(t, err)
	if !res.Succeeded {
		assert.Equal(t, "Transaction declined", res.FailureReason)
	}
}
