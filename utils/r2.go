// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var evidenceClient *s3.Client
var evidenceBucket string
var cdnBaseURL string

// InitEvidenceStore wires the R2 bucket appeal evidence screenshots go to.
// The store is optional: without credentials appeals still work, just
// text-only (callers check EvidenceStoreEnabled).
func InitEvidenceStore() error {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	evidenceBucket = os.Getenv("R2_BUCKET_NAME")
	if accountID == "" || accessKeyID == "" || accessKeySecret == "" || evidenceBucket == "" {
		return fmt.Errorf("R2 credentials not configured")
	}
	cdnBaseURL = os.Getenv("CDN_BASE_URL")
	if cdnBaseURL == "" {
		cdnBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	evidenceClient = s3.NewFromConfig(cfg)
	return nil
}

func EvidenceStoreEnabled() bool {
	return evidenceClient != nil
}

// UploadEvidence stores an appeal screenshot and returns its public URL.
// key is the object key (e.g., "appeals/<match>/<filer>-<uuid>").
func UploadEvidence(fileHeader *multipart.FileHeader, key string) (string, error) {
	if evidenceClient == nil {
		return "", fmt.Errorf("evidence store not configured")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err = evidenceClient.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(evidenceBucket),
		Key:         aws.String(key),
		Body:        buf,
		ContentType: aws.String(fileHeader.Header.Get("Content-Type")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload evidence: %w", err)
	}

	return fmt.Sprintf("%s/%s", cdnBaseURL, key), nil
}
