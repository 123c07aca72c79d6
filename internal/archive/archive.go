// Package archive stores finished run transcripts in a blob bucket
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/kode4food/renewal/pkg/api"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobArchive writes run transcripts using gocloud.dev/blob, supporting S3,
// GCS, Azure Blob Storage, local files and memory buckets
type BlobArchive struct {
	bucket *blob.Bucket
	prefix string
}

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrInvalidTranscript  = errors.New("transcript requires policy and run id")
)

// Open opens the bucket at bucketURL
func Open(ctx context.Context, bucketURL, prefix string) (*BlobArchive, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open archive bucket: %w", err)
	}
	return New(bucket, prefix), nil
}

// New wraps an already opened bucket
func New(bucket *blob.Bucket, prefix string) *BlobArchive {
	return &BlobArchive{bucket: bucket, prefix: prefix}
}

// Put stores a transcript, replacing any previous one for the same run
func (a *BlobArchive) Put(ctx context.Context, tr *api.RunTranscript) error {
	if tr.PolicyID == "" || tr.RunID == "" {
		return ErrInvalidTranscript
	}
	data, err := json.Marshal(tr)
	if err != nil {
		return err
	}
	return a.bucket.WriteAll(ctx, a.keyFor(tr.PolicyID, tr.RunID), data,
		&blob.WriterOptions{ContentType: "application/json"},
	)
}

// Get loads the transcript of a run
func (a *BlobArchive) Get(
	ctx context.Context, policyID, runID string,
) (*api.RunTranscript, error) {
	data, err := a.bucket.ReadAll(ctx, a.keyFor(policyID, runID))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s/%s",
				ErrTranscriptNotFound, policyID, runID)
		}
		return nil, err
	}

	var tr api.RunTranscript
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Runs lists the archived run ids of a policy
func (a *BlobArchive) Runs(
	ctx context.Context, policyID string,
) ([]string, error) {
	dir := a.prefix + policyID + "/"
	iter := a.bucket.List(&blob.ListOptions{Prefix: dir})
	res := []string{}
	for {
		obj, err := iter.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			return nil, err
		}
		name := strings.TrimPrefix(obj.Key, dir)
		res = append(res, strings.TrimSuffix(name, ".json"))
	}
}

// Delete removes a run transcript. Missing transcripts are not an error
func (a *BlobArchive) Delete(ctx context.Context, policyID, runID string) error {
	err := a.bucket.Delete(ctx, a.keyFor(policyID, runID))
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (a *BlobArchive) Close() error {
	return a.bucket.Close()
}

func (a *BlobArchive) keyFor(policyID, runID string) string {
	return a.prefix + policyID + "/" + runID + ".json"
}
