package batchstore

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// S3Handler stores streams in an S3 bucket. Endpoint overrides the AWS
// endpoint for localstack-style testing; AssumeRoleArn switches the session
// to assumed-role credentials.
type S3Handler struct {
	Logger        logrus.FieldLogger
	Endpoint      string
	AssumeRoleArn string
}

func (handler *S3Handler) WriteStream(ctx context.Context, uri string, r io.Reader) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	sess, err := handler.createSession()
	if err != nil {
		return errors.Wrap(err, "could not create S3 session")
	}

	uploader := s3manager.NewUploader(sess)
	if _, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:               aws.String(bucket),
		Key:                  aws.String(key),
		Body:                 r,
		ServerSideEncryption: aws.String("AES256"),
	}); err != nil {
		handler.Logger.Errorf("Failed to upload to bucket %s, key %s: %s", bucket, key, err)
		return errors.Wrapf(err, "could not upload stream %s", uri)
	}

	handler.Logger.Infof("Uploaded stream to bucket %s, key %s", bucket, key)
	return nil
}

func (handler *S3Handler) ReadStream(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	sess, err := handler.createSession()
	if err != nil {
		return nil, errors.Wrap(err, "could not create S3 session")
	}

	svc := s3.New(sess)
	out, err := svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		handler.Logger.Errorf("Failed to download bucket %s, key %s: %s", bucket, key, err)
		return nil, errors.Wrapf(err, "could not download stream %s", uri)
	}
	return out.Body, nil
}

func (handler *S3Handler) Delete(ctx context.Context, uri string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	sess, err := handler.createSession()
	if err != nil {
		return errors.Wrap(err, "could not create S3 session")
	}

	svc := s3.New(sess)
	if _, err := svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return errors.Wrapf(err, "could not delete stream %s", uri)
	}

	handler.Logger.Infof("Deleted stream from bucket %s, key %s", bucket, key)
	return nil
}

func (handler *S3Handler) createSession() (*session.Session, error) {
	sess := session.Must(session.NewSession())

	config := aws.Config{
		Region: aws.String("us-east-1"),
	}

	if handler.Endpoint != "" {
		config.S3ForcePathStyle = aws.Bool(true)
		config.Endpoint = &handler.Endpoint
	}

	if handler.AssumeRoleArn != "" {
		config.Credentials = stscreds.NewCredentials(
			sess,
			handler.AssumeRoleArn,
		)
	}

	return session.NewSessionWithOptions(session.Options{
		Config: config,
	})
}

func parseS3URI(str string) (bucket string, key string, err error) {
	if !strings.HasPrefix(str, "s3://") {
		return "", "", errors.Errorf("not an S3 URI: %s", str)
	}
	workingString := strings.TrimPrefix(str, "s3://")
	resultArr := strings.SplitN(workingString, "/", 2)

	if len(resultArr) != 2 || resultArr[0] == "" || resultArr[1] == "" {
		return "", "", errors.Errorf("S3 URI %s is missing its bucket or key", str)
	}
	return resultArr[0], resultArr[1], nil
}
