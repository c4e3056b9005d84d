// Package imagesource loads draft images from local paths and s3:// URIs.
package imagesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/crossposter/internal/models"
)

// MaxImageBytes caps a single image; Telegram rejects larger photos anyway.
const MaxImageBytes = 10 << 20

// ObjectGetter is the subset of *s3.Client used here.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config describes an S3-compatible store. Empty credentials fall back to
// the default AWS chain.
type S3Config struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewS3Client builds an S3 client for cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

type Loader struct {
	s3 ObjectGetter
}

// NewLoader returns a loader; s3 may be nil when no s3:// sources are used.
func NewLoader(s3 ObjectGetter) *Loader {
	return &Loader{s3: s3}
}

// Load reads every ref in order.
func (l *Loader) Load(ctx context.Context, refs []string) ([]models.Image, error) {
	out := make([]models.Image, 0, len(refs))
	for _, ref := range refs {
		img, err := l.load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", ref, err)
		}
		out = append(out, img)
	}
	return out, nil
}

func (l *Loader) load(ctx context.Context, ref string) (models.Image, error) {
	if strings.HasPrefix(ref, "s3://") {
		return l.loadS3(ctx, ref)
	}

	f, err := os.Open(ref)
	if err != nil {
		return models.Image{}, err
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return models.Image{}, err
	}
	return image(filepath.Base(ref), "", data)
}

func (l *Loader) loadS3(ctx context.Context, ref string) (models.Image, error) {
	if l.s3 == nil {
		return models.Image{}, fmt.Errorf("s3 is not configured")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return models.Image{}, err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return models.Image{}, fmt.Errorf("want s3://bucket/key")
	}

	obj, err := l.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(u.Host), Key: aws.String(key)})
	if err != nil {
		return models.Image{}, err
	}
	defer obj.Body.Close()

	data, err := readLimited(obj.Body)
	if err != nil {
		return models.Image{}, err
	}
	return image(path.Base(key), aws.ToString(obj.ContentType), data)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("larger than %d bytes", MaxImageBytes)
	}
	return data, nil
}

func image(name, contentType string, data []byte) (models.Image, error) {
	if len(data) == 0 {
		return models.Image{}, fmt.Errorf("empty file")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return models.Image{}, fmt.Errorf("not an image (%s)", contentType)
	}
	return models.Image{Name: name, ContentType: contentType, Data: data}, nil
}
