package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/sirupsen/logrus"
)

// SQSConfig carries the static-credential endpoint setup used when the
// platform runs on an SQS-compatible queue instead of Redis.
type SQSConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string

	TaskQueueURL   string
	ResultQueueURL string
}

// SQSBroker implements Broker on top of two SQS queues: one the worker long
// polls for tasks, one it sends results and progress updates to.
type SQSBroker struct {
	client         *sqs.Client
	taskQueueURL   string
	resultQueueURL string
	logger         *logrus.Logger
}

func NewSQSBroker(cfg SQSConfig, logger *logrus.Logger) *SQSBroker {
	client := sqs.NewFromConfig(aws.Config{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	})
	return &SQSBroker{
		client:         client,
		taskQueueURL:   cfg.TaskQueueURL,
		resultQueueURL: cfg.ResultQueueURL,
		logger:         logger,
	}
}

func (b *SQSBroker) Receive(ctx context.Context) (*Message, error) {
	resp, err := b.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(b.taskQueueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive message: %w", err)
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}

	message := resp.Messages[0]
	return &Message{
		ID:   aws.ToString(message.ReceiptHandle),
		Body: []byte(aws.ToString(message.Body)),
	}, nil
}

func (b *SQSBroker) Ack(ctx context.Context, msg *Message) error {
	_, err := b.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(b.taskQueueURL),
		ReceiptHandle: aws.String(msg.ID),
	})
	if err != nil {
		return fmt.Errorf("error deleting message from SQS: %w", err)
	}
	return nil
}

func (b *SQSBroker) Reply(ctx context.Context, taskID, result string) error {
	body, err := json.Marshal(map[string]string{
		"task_id": taskID,
		"result":  result,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	_, err = b.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(b.resultQueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

func (b *SQSBroker) PublishProgress(ctx context.Context, taskID string, event ProgressEvent) error {
	body, err := json.Marshal(struct {
		TaskID string `json:"task_id"`
		ProgressEvent
	}{TaskID: taskID, ProgressEvent: event})
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}
	_, err = b.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(b.resultQueueURL),
		MessageBody: aws.String(string(body)),
	})
	return err
}
