package repositories

import (
	"context"
	"io"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Optional S3-compatible mirror for uploaded files. Local disk stays
// authoritative; the mirror exists for durability, and mirror failures are
// logged rather than surfaced to clients.
var (
	ObjectClient *s3.Client
	ObjectBucket string
)

// InitObjectStore initializes the S3 client using static credentials and a
// custom endpoint. Leaving the bucket unconfigured disables mirroring.
func InitObjectStore(endpoint, accessKey, secretKey, bucketName, region string) error {
	ObjectBucket = bucketName

	cfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		Region:      region,
	}

	ObjectClient = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	log.Println("Successfully initialized object store mirror")

	return nil
}

// MirrorEnabled reports whether uploads should be copied to the bucket.
func MirrorEnabled() bool {
	return ObjectClient != nil && ObjectBucket != ""
}

// MirrorPut copies a stored file's bytes to the bucket under its storage name.
func MirrorPut(ctx context.Context, key string, body io.Reader) error {
	_, err := ObjectClient.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(ObjectBucket),
		Key:    aws.String(key),
		Body:   body,
	})
	return err
}

// MirrorDelete removes a mirrored object. Deleting a missing key is not an
// error in S3 semantics, which matches the idempotent local delete.
func MirrorDelete(ctx context.Context, key string) error {
	_, err := ObjectClient.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ObjectBucket),
		Key:    aws.String(key),
	})
	return err
}
