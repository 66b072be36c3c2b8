package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextractClient runs document text detection against objects already
// uploaded to S3. It implements ExtractionClient.
type TextractClient struct {
	client *textract.Client
	bucket string
}

func NewTextractClient(cfg aws.Config, bucket string) *TextractClient {
	return &TextractClient{
		client: textract.NewFromConfig(cfg),
		bucket: bucket,
	}
}

// Submit starts an asynchronous text detection job for the object.
func (tc *TextractClient) Submit(ctx context.Context, objectKey string) (string, error) {
	out, err := tc.client.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(tc.bucket),
				Name:   aws.String(objectKey),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to start text detection for %s: %w", objectKey, err)
	}
	if out.JobId == nil {
		return "", fmt.Errorf("text detection for %s returned no job id", objectKey)
	}
	return *out.JobId, nil
}

// Poll fetches the current job state. When the job has succeeded it
// pages through all result blocks and collects the detected lines in
// reading order.
func (tc *TextractClient) Poll(ctx context.Context, jobID string) (*ExtractionStatus, error) {
	out, err := tc.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
		JobId: aws.String(jobID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get text detection job %s: %w", jobID, err)
	}

	switch out.JobStatus {
	case types.JobStatusSucceeded, types.JobStatusPartialSuccess:
		lines, err := tc.collectLines(ctx, jobID, out)
		if err != nil {
			return nil, err
		}
		return &ExtractionStatus{State: ExtractionSucceeded, Lines: lines}, nil
	case types.JobStatusFailed:
		return &ExtractionStatus{State: ExtractionFailed, Message: aws.ToString(out.StatusMessage)}, nil
	default:
		return &ExtractionStatus{State: ExtractionInProgress}, nil
	}
}

func (tc *TextractClient) collectLines(ctx context.Context, jobID string, first *textract.GetDocumentTextDetectionOutput) ([]string, error) {
	var lines []string
	out := first
	for {
		for _, block := range out.Blocks {
			if block.BlockType == types.BlockTypeLine && block.Text != nil {
				lines = append(lines, *block.Text)
			}
		}
		if out.NextToken == nil {
			return lines, nil
		}
		var err error
		out, err = tc.client.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: out.NextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to page text detection job %s: %w", jobID, err)
		}
	}
}
