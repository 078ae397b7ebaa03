package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

func TestUsecase_Verify_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("alice verifies with the current code", func(t *testing.T) {
		f := newFixture(t)
		secret := f.enrolled(t, "alice")

		out, err := f.uc.Verify(ctx, VerifyInput{Username: "alice", Token: f.code(t, secret, 0), ClientIP: "198.51.100.1"})
		require.NoError(t, err)
		assert.True(t, out.AccessGranted)
		assert.True(t, out.TwoFactorVerified)

		logs := f.logs(t)
		require.Len(t, logs, 2)
		assert.Equal(t, entity.ActionVerify, logs[0].Action)
		assert.True(t, logs[0].AccessGranted)
	})

	t.Run("bob is allowed one step of skew backwards only", func(t *testing.T) {
		f := newFixture(t)
		secret := f.enrolled(t, "bob")

		_, err := f.uc.Verify(ctx, VerifyInput{Username: "bob", Token: f.code(t, secret, -30*time.Second)})
		require.NoError(t, err)

		stale := f.code(t, secret, -60*time.Second)
		if stale != f.code(t, secret, 0) && stale != f.code(t, secret, -30*time.Second) {
			_, err = f.uc.Verify(ctx, VerifyInput{Username: "bob", Token: stale})
			requireCode(t, err, goerror.CodeVerificationFailed)
		}

		early := f.code(t, secret, 30*time.Second)
		if early != f.code(t, secret, 0) && early != f.code(t, secret, -30*time.Second) {
			_, err = f.uc.Verify(ctx, VerifyInput{Username: "bob", Token: early})
			requireCode(t, err, goerror.CodeVerificationFailed)
		}
	})

	t.Run("carol is locked out after six failures", func(t *testing.T) {
		f := newFixture(t)
		secret := f.enrolled(t, "carol")
		wrong := f.wrongCode(t, secret)

		for range 6 {
			_, err := f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: wrong})
			requireCode(t, err, goerror.CodeVerificationFailed)
		}

		_, err := f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: f.code(t, secret, 0)})
		requireCode(t, err, goerror.CodeTooManyRequest)

		logs := f.logs(t)
		require.Len(t, logs, 8)
		assert.Equal(t, entity.ReasonTooManyAttempts, logs[0].Reason)
		assert.False(t, logs[0].TwoFactorVerified)

		f.clock.Advance(15 * time.Minute)
		out, err := f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: f.code(t, secret, 0)})
		require.NoError(t, err)
		assert.True(t, out.AccessGranted)
	})

	t.Run("success resets the failure counter", func(t *testing.T) {
		f := newFixture(t)
		secret := f.enrolled(t, "carol")
		wrong := f.wrongCode(t, secret)

		for range 5 {
			_, err := f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: wrong})
			requireCode(t, err, goerror.CodeVerificationFailed)
		}
		_, err := f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: f.code(t, secret, 0)})
		require.NoError(t, err)

		for range 5 {
			_, err := f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: wrong})
			requireCode(t, err, goerror.CodeVerificationFailed)
		}
		_, err = f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: f.code(t, secret, 0)})
		require.NoError(t, err)
	})

	t.Run("dave never set up 2FA", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.uc.Verify(ctx, VerifyInput{Username: "dave", Token: "123456"})
		requireCode(t, err, goerror.CodeNotConfigured)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, "dave", logs[0].Username)
		assert.Equal(t, entity.ReasonNotConfigured, logs[0].Reason)
		assert.False(t, logs[0].TwoFactorVerified)
		assert.False(t, logs[0].AccessGranted)
	})

	t.Run("pending account is not enabled", func(t *testing.T) {
		f := newFixture(t)
		setup, err := f.uc.Setup(ctx, SetupInput{Username: "erin"})
		require.NoError(t, err)

		_, err = f.uc.Verify(ctx, VerifyInput{Username: "erin", Token: f.code(t, setup.Secret, 0)})
		requireCode(t, err, goerror.CodeForbidden)

		logs := f.logs(t)
		require.Len(t, logs, 1)
		assert.Equal(t, entity.ReasonNotEnabled, logs[0].Reason)
		assert.False(t, logs[0].AccessGranted)
	})
}

func TestUsecase_Verify_OneEntryPerCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	secret := f.enrolled(t, "alice")

	calls := []struct {
		name string
		in   VerifyInput
		code goerror.Code
		ok   bool
	}{
		{name: "malformed token", in: VerifyInput{Username: "alice", Token: "12ab56"}, code: goerror.CodeInvalidInput},
		{name: "short token", in: VerifyInput{Username: "alice", Token: "123"}, code: goerror.CodeInvalidInput},
		{name: "missing username", in: VerifyInput{Token: "123456"}, code: goerror.CodeInvalidInput},
		{name: "oversized client ip", in: VerifyInput{Username: "alice", Token: "123456", ClientIP: strings.Repeat("1", 80)}, code: goerror.CodeInvalidInput},
		{name: "wrong code", in: VerifyInput{Username: "alice", Token: f.wrongCode(t, secret)}, code: goerror.CodeVerificationFailed},
		{name: "unknown user", in: VerifyInput{Username: "nobody", Token: "123456"}, code: goerror.CodeNotConfigured},
		{name: "success", in: VerifyInput{Username: "alice", Token: f.code(t, secret, 0)}, ok: true},
	}

	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f.logs(t))

			_, err := f.uc.Verify(ctx, tt.in)
			if tt.ok {
				require.NoError(t, err)
			} else {
				requireCode(t, err, tt.code)
			}

			logs := f.logs(t)
			require.Len(t, logs, before+1)
			assert.LessOrEqual(t, len(logs[0].ClientIP), maxClientIP)
		})
	}

	t.Run("store unavailable", func(t *testing.T) {
		f.db.failGet = true
		defer func() { f.db.failGet = false }()
		before := len(f.logs(t))

		_, err := f.uc.Verify(ctx, VerifyInput{Username: "alice", Token: "123456"})
		requireCode(t, err, goerror.CodeUnavailable)

		logs := f.logs(t)
		require.Len(t, logs, before+1)
		assert.Equal(t, entity.ReasonUnavailable, logs[0].Reason)
	})
}

func TestUsecase_Verify_DegradedLogging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	secret := f.enrolled(t, "alice")
	f.db.failLog = true

	out, err := f.uc.Verify(ctx, VerifyInput{Username: "alice", Token: f.code(t, secret, 0)})
	require.NoError(t, err)
	assert.True(t, out.AccessGranted)

	_, err = f.uc.Verify(ctx, VerifyInput{Username: "alice", Token: f.wrongCode(t, secret)})
	requireCode(t, err, goerror.CodeVerificationFailed)

	require.NoError(t, f.gm.Wait())

	f.mq.mu.Lock()
	defer f.mq.mu.Unlock()
	require.Len(t, f.mq.degraded, 2)
	reasons := make([]entity.Reason, 0, len(f.mq.degraded))
	for _, d := range f.mq.degraded {
		require.ErrorIs(t, d.Err, errStoreDown)
		reasons = append(reasons, d.Entry.Reason)
	}
	assert.ElementsMatch(t, []entity.Reason{entity.ReasonGranted, entity.ReasonInvalidCode}, reasons)
	assert.Len(t, f.logs(t), 1)
}

func TestUsecase_Verify_ParallelGuessesHonorLockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	secret := f.enrolled(t, "carol")
	wrong := f.wrongCode(t, secret)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[goerror.Code]int{}
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Verify(ctx, VerifyInput{Username: "carol", Token: wrong})
			mu.Lock()
			outcomes[goerror.CodeOf(err)]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, outcomes[goerror.CodeVerificationFailed])
	assert.Equal(t, 94, outcomes[goerror.CodeTooManyRequest])
	assert.Len(t, f.logs(t), 101)
}

func TestUsecase_Verify_UncheckedAttemptsDoNotCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for range 10 {
		_, err := f.uc.Verify(ctx, VerifyInput{Username: "dave", Token: "123456"})
		requireCode(t, err, goerror.CodeNotConfigured)
	}

	setup, err := f.uc.Setup(ctx, SetupInput{Username: "erin"})
	require.NoError(t, err)
	for range 10 {
		_, err := f.uc.Verify(ctx, VerifyInput{Username: "erin", Token: "123456"})
		requireCode(t, err, goerror.CodeForbidden)
	}

	err = f.uc.Enable(ctx, EnableInput{Username: "erin", Token: f.code(t, setup.Secret, 0)})
	require.NoError(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "a", truncate("aé", 2))
}

func TestUsecase_RejectMalformed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cause := goerror.NewInvalidFormat()

	err := f.uc.RejectMalformed(ctx, MalformedInput{
		Action:   entity.ActionVerify,
		ClientIP: strings.Repeat("9", 80),
		Cause:    cause,
	})
	assert.Same(t, cause, err)

	err = f.uc.RejectMalformed(ctx, MalformedInput{Action: entity.ActionEnable, ClientIP: "203.0.113.7"})
	requireCode(t, err, goerror.CodeInvalidFormat)

	logs := f.logs(t)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Empty(t, l.Username)
		assert.Equal(t, entity.ReasonInvalidInput, l.Reason)
		assert.False(t, l.TwoFactorVerified)
		assert.False(t, l.AccessGranted)
		assert.LessOrEqual(t, len(l.ClientIP), maxClientIP)
	}
	assert.ElementsMatch(t, []entity.Action{entity.ActionVerify, entity.ActionEnable}, []entity.Action{logs[0].Action, logs[1].Action})
}
