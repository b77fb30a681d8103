package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
}

// Uploader mirrors a run's output files into the platform's S3 bucket so
// deployments without a shared output volume can fetch artifacts.
type Uploader struct {
	S3Client *s3.Client
	Bucket   string
	Logger   *log.Logger
}

func NewUploader(cfg S3Config, logger *log.Logger) *Uploader {
	client := s3.NewFromConfig(aws.Config{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	})
	return &Uploader{S3Client: client, Bucket: cfg.BucketName, Logger: logger}
}

// UploadOutputs puts every output file under <workflow_id>/<basename>. The
// basename is already a uuid, so keys never collide across tasks.
func (u *Uploader) UploadOutputs(ctx context.Context, workflowID string, outputFiles []OutputFile) error {
	for _, outputFile := range outputFiles {
		key := fmt.Sprintf("%s/%s", workflowID, filepath.Base(outputFile.Path))

		fh, err := os.Open(outputFile.Path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", outputFile.Path, err)
		}

		_, err = u.S3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(u.Bucket),
			Key:    aws.String(key),
			Body:   fh,
		})
		fh.Close()
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}

		u.Logger.WithFields(log.Fields{
			"key":          key,
			"display_name": outputFile.DisplayName,
		}).Info("Uploaded output file")
	}
	return nil
}
