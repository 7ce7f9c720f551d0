package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

type S3Deps struct {
	Client    *s3.Client
	Uploader  *manager.Uploader
	Presigner *s3.PresignClient
	Bucket    string
	SSE       *s3types.ServerSideEncryption
}

func NewS3(ctx context.Context, cfg *config.Config) (*S3Deps, error) {
	loadOpts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		loadOpts = append(loadOpts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}

	acfg, err := awsCfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.Telemetry.Enabled {
		otelaws.AppendMiddlewares(&acfg.APIOptions)
	}

	s3Opts := func(o *s3.Options) {
		if ep := strings.TrimSpace(cfg.S3.Endpoint); ep != "" {
			if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
				ep = "https://" + ep
			}
			if u, uerr := url.Parse(ep); uerr == nil {
				o.BaseEndpoint = aws.String(u.String())
			}
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	}

	client := s3.NewFromConfig(acfg, s3Opts)

	var sse *s3types.ServerSideEncryption
	if cfg.S3.SSE != "" {
		v := s3types.ServerSideEncryption(cfg.S3.SSE)
		sse = &v
	}

	return &S3Deps{
		Client:    client,
		Uploader:  manager.NewUploader(client),
		Presigner: s3.NewPresignClient(client),
		Bucket:    cfg.S3.Bucket,
		SSE:       sse,
	}, nil
}

// Generate a pre-signed GET URL. A non-empty filename is suggested to the
// browser through Content-Disposition.
func (s *S3Deps) PresignGet(ctx context.Context, key, filename string, expire time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("key is empty")
	}
	in := &s3.GetObjectInput{
		Bucket: &s.Bucket,
		Key:    &key,
	}
	if filename != "" {
		in.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", filename))
	}
	ps, err := s.Presigner.PresignGetObject(ctx, in, func(po *s3.PresignOptions) {
		po.Expires = expire
	})
	if err != nil {
		return "", err
	}
	return ps.URL, nil
}

type UploadedMeta struct {
	Bucket string
	Key    string
	ETag   string
	SHA256 string
	MIME   string
	SizeB  int64
}

// ContentKey addresses data by its digest: <prefix>/<sha256><ext>.
func ContentKey(keyPrefix string, data []byte, ext string) (key, sumHex string) {
	sum := sha256.Sum256(data)
	sumHex = hex.EncodeToString(sum[:])
	prefix := strings.Trim(keyPrefix, "/")
	if prefix == "" {
		return sumHex + ext, sumHex
	}
	return prefix + "/" + sumHex + ext, sumHex
}

// UploadBytes stores data under its content key. Identical artifacts share one
// object, so an existing key is not uploaded again.
func (u *S3Deps) UploadBytes(ctx context.Context, keyPrefix, ext, contentType string, data []byte, metadata map[string]string) (*UploadedMeta, error) {
	key, sumHex := ContentKey(keyPrefix, data, ext)
	meta := &UploadedMeta{
		Bucket: u.Bucket,
		Key:    key,
		SHA256: sumHex,
		MIME:   contentType,
		SizeB:  int64(len(data)),
	}

	head, err := u.Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &u.Bucket, Key: &key})
	if err == nil {
		meta.ETag = aws.ToString(head.ETag)
		return meta, nil
	}
	var nf *s3types.NotFound
	if !errors.As(err, &nf) {
		return nil, fmt.Errorf("head object: %w", err)
	}

	md := map[string]string{"sha256": sumHex}
	for k, v := range metadata {
		md[k] = v
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    md,
	}
	if u.SSE != nil {
		input.ServerSideEncryption = *u.SSE
	}

	out, err := u.Uploader.Upload(ctx, input)
	if err != nil {
		return nil, err
	}
	meta.ETag = aws.ToString(out.ETag)
	return meta, nil
}
