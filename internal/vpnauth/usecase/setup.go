package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/pkg/mfa"
	"github.com/shandysiswandi/vpnguard/internal/pkg/qrcode"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

type SetupInput struct {
	Username string `validate:"required,max=150,username"`
}

type SetupOutput struct {
	Username  string
	Secret    string
	QRCode    []byte
	IsEnabled bool
	Created   bool
}

// Setup provisions the TOTP secret of a user, or returns the one already
// stored while enrollment is pending. Once the account is enabled the secret
// is never handed out again: only IsEnabled is reported. Setup never enables
// the account and never rotates the secret.
func (s *Usecase) Setup(ctx context.Context, in SetupInput) (*SetupOutput, error) {
	ctx, span := s.startSpan(ctx, "Setup")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.repoDB.GetAccount(ctx, in.Username)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account", "username", in.Username, "error", err)
		return nil, goerror.NewUnavailable(err)
	}

	if acc.State() == entity.StateEnabled {
		slog.InfoContext(ctx, "setup requested for enabled account, secret withheld", "username", acc.Username)
		return &SetupOutput{Username: acc.Username, IsEnabled: true}, nil
	}

	var (
		secret  string
		created bool
	)
	if acc.State() == entity.StateNotConfigured {
		acc, secret, created, err = s.provision(ctx, in.Username)
		if err != nil {
			return nil, err
		}
	}

	if !created {
		secret, err = s.openSecret(ctx, acc)
		if err != nil {
			return nil, err
		}
	}

	// a concurrent Enable may have landed between GetAccount and provision
	if acc.Enabled {
		return &SetupOutput{Username: acc.Username, IsEnabled: true}, nil
	}

	png, err := qrcode.Encode(acc.Username, secret, s.issuer())
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode provisioning qr code", "username", acc.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	if created {
		slog.InfoContext(ctx, "totp secret provisioned", "username", acc.Username)
	}

	return &SetupOutput{
		Username:  acc.Username,
		Secret:    secret,
		QRCode:    png,
		Created:   created,
	}, nil
}

// provision stores a fresh secret unless a concurrent call won the race, in
// which case the stored account is returned with created=false.
func (s *Usecase) provision(ctx context.Context, username string) (*entity.Account, string, bool, error) {
	secret, err := s.totp.GenerateSecret(username)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "username", username, "error", err)
		return nil, "", false, goerror.NewServer(err)
	}

	sealed, err := s.mfaEncryptor.Encrypt([]byte(secret), mfa.SecretScope(username))
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "username", username, "error", err)
		return nil, "", false, goerror.NewServer(err)
	}

	now := s.clock.Now().UTC()
	acc, created, err := s.repoDB.ProvisionAccount(ctx, entity.Account{
		Username:  username,
		Secret:    sealed,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo provision account", "username", username, "error", err)
		return nil, "", false, goerror.NewUnavailable(err)
	}

	if !created {
		return acc, "", false, nil
	}
	return acc, secret, true, nil
}

func (s *Usecase) openSecret(ctx context.Context, acc *entity.Account) (string, error) {
	plain, err := s.mfaEncryptor.Decrypt(acc.Secret, mfa.SecretScope(acc.Username))
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "username", acc.Username, "error", err)
		return "", goerror.NewServer(err)
	}
	return string(plain), nil
}
