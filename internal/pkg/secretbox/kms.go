package secretbox

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSDecrypter is the subset of the KMS client used to unwrap the master key.
type KMSDecrypter interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSOptions configures the KMS client used to unwrap the master key.
type KMSOptions struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	KeyID        string
}

// NewKMSClient builds a KMS client from static credentials when given, or
// the default AWS credential chain otherwise.
func NewKMSClient(ctx context.Context, opts KMSOptions) (*kms.Client, error) {
	loadOpts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		))
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("secretbox: load aws config: %w", err)
	}

	return kms.NewFromConfig(cfg, func(o *kms.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// NewKMSKeyProvider unwraps an encrypted data key once with KMS and derives
// per-scope keys from it with HKDF. The plaintext master key never leaves
// process memory.
func NewKMSKeyProvider(ctx context.Context, client KMSDecrypter, keyID string, wrapped, salt []byte) (*HKDFKeyProvider, error) {
	if len(wrapped) == 0 {
		return nil, ErrMissingKey
	}

	in := &kms.DecryptInput{CiphertextBlob: wrapped}
	if keyID != "" {
		in.KeyId = aws.String(keyID)
	}

	out, err := client.Decrypt(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("secretbox: kms decrypt: %w", err)
	}

	return NewHKDFKeyProvider(out.Plaintext, salt)
}
