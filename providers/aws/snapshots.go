package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/tagwarden/tagwarden/inventory"
	"github.com/tagwarden/tagwarden/telemetry"
)

const (
	// DefaultPageSize keeps DescribeSnapshots pages small enough to
	// resume cheaply after a fault.
	DefaultPageSize = 500

	// DefaultCallTimeout bounds each network call. Expiry is a transient
	// failure handled by the remediation retry policy.
	DefaultCallTimeout = 30 * time.Second
)

// snapshotAPI is the slice of the EC2 client the source uses.
type snapshotAPI interface {
	DescribeSnapshots(ctx context.Context, params *ec2.DescribeSnapshotsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

// Options configure the snapshot source.
type Options struct {
	Region      string
	PageSize    int32
	CallTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
}

// SnapshotSource implements inventory.Source over the EC2 snapshot API.
// Only snapshots owned by the current account are listed.
type SnapshotSource struct {
	client snapshotAPI
	opts   Options
	logger *telemetry.Logger
}

// New creates a snapshot source from the default AWS credential chain.
func New(ctx context.Context, opts Options) (*SnapshotSource, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewFromClient(ec2.NewFromConfig(cfg), opts), nil
}

// NewFromClient wires a source to an existing client.
func NewFromClient(client snapshotAPI, opts Options) *SnapshotSource {
	opts.applyDefaults()
	return &SnapshotSource{
		client: client,
		opts:   opts,
		logger: telemetry.NewLogger("aws-snapshots"),
	}
}

// ListPage fetches one page of owned snapshots.
func (s *SnapshotSource) ListPage(ctx context.Context, token string) (inventory.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	input := &ec2.DescribeSnapshotsInput{
		OwnerIds:   []string{"self"},
		MaxResults: aws.Int32(s.opts.PageSize),
	}
	if token != "" {
		input.NextToken = aws.String(token)
	}

	output, err := s.client.DescribeSnapshots(ctx, input)
	if err != nil {
		return inventory.Page{}, fmt.Errorf("failed to describe snapshots: %w", err)
	}

	records := make([]inventory.Record, 0, len(output.Snapshots))
	for _, snapshot := range output.Snapshots {
		records = append(records, convertSnapshot(snapshot))
	}

	s.logger.Debug().
		Int("records", len(records)).
		Str("region", s.opts.Region).
		Msg("listed snapshot page")

	return inventory.Page{
		Records:   records,
		NextToken: aws.ToString(output.NextToken),
	}, nil
}

// ApplyTags upserts tags onto the given snapshots in a single CreateTags
// call. EC2 tagging merges by key and never touches unrelated tags, which
// is what makes remediation idempotent.
func (s *SnapshotSource) ApplyTags(ctx context.Context, entityIDs []string, tags map[string]string) ([]inventory.ApplyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()

	_, err := s.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: entityIDs,
		Tags:      convertTags(tags),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to tag snapshots: %w", err)
	}

	results := make([]inventory.ApplyResult, len(entityIDs))
	for i, id := range entityIDs {
		results[i] = inventory.ApplyResult{EntityID: id}
	}
	return results, nil
}

// convertSnapshot maps one EC2 snapshot onto a raw inventory record.
func convertSnapshot(snapshot ec2types.Snapshot) inventory.Record {
	tags := make([]inventory.TagPair, 0, len(snapshot.Tags))
	for _, tag := range snapshot.Tags {
		tags = append(tags, inventory.TagPair{
			Key:   aws.ToString(tag.Key),
			Value: aws.ToString(tag.Value),
		})
	}

	return inventory.Record{
		ID:        aws.ToString(snapshot.SnapshotId),
		Tags:      tags,
		VolumeID:  aws.ToString(snapshot.VolumeId),
		SizeGB:    aws.ToInt32(snapshot.VolumeSize),
		Encrypted: aws.ToBool(snapshot.Encrypted),
		StartedAt: safeTimeValue(snapshot.StartTime),
	}
}

// convertTags renders the tag map in sorted key order so requests are
// deterministic.
func convertTags(tags map[string]string) []ec2types.Tag {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]ec2types.Tag, 0, len(keys))
	for _, key := range keys {
		out = append(out, ec2types.Tag{
			Key:   aws.String(key),
			Value: aws.String(tags[key]),
		})
	}
	return out
}

func safeTimeValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
