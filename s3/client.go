//
//   Copyright © 2019 Uncharted Software Inc.
//
//   Licensed under the Apache License, Version 2.0 (the "License");
//   you may not use this file except in compliance with the License.
//   You may obtain a copy of the License at
//
//       http://www.apache.org/licenses/LICENSE-2.0
//
//   Unless required by applicable law or agreed to in writing, software
//   distributed under the License is distributed on an "AS IS" BASIS,
//   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//   See the License for the specific language governing permissions and
//   limitations under the License.

// Package s3 archives the raw maDMP documents of imports in a bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/conf"
)

const timestampFormat = "20060102T150405.000Z"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewClient returns a new S3 client using the aws session. A configured
// endpoint is addressed path-style, as S3 compatible stores expect. Nil
// creds use the default credential chain.
func NewClient(config conf.S3, creds *credentials.Credentials) (*s3.S3, error) {
	cfg := aws.NewConfig()
	if config.Region != "" {
		cfg = cfg.WithRegion(config.Region)
	}
	if config.Endpoint != "" {
		cfg = cfg.WithEndpoint(config.Endpoint).WithS3ForcePathStyle(true)
	}
	if creds != nil {
		cfg = cfg.WithCredentials(creds)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create aws session")
	}
	return s3.New(sess), nil
}

// Archive writes documents to `<prefix>/<dmp-id>/<timestamp>.json`.
type Archive struct {
	Client *s3.S3
	Bucket string
	Prefix string
	Now    func() time.Time
}

// NewArchive creates an archive in the configured bucket.
func NewArchive(client *s3.S3, config conf.S3) *Archive {
	return &Archive{
		Client: client,
		Bucket: config.Bucket,
		Prefix: config.Prefix,
		Now:    time.Now,
	}
}

// KeyPrefix returns the folder of the documents of a DMP. Characters other
// than letters, digits, dots, dashes and underscores are replaced.
func (a *Archive) KeyPrefix(dmpID string) string {
	return path.Join(a.Prefix, unsafeKeyChars.ReplaceAllString(dmpID, "_")) + "/"
}

// Key returns the key of a document archived at t.
func (a *Archive) Key(dmpID string, t time.Time) string {
	return fmt.Sprintf("%s%s.json", a.KeyPrefix(dmpID), t.UTC().Format(timestampFormat))
}

// Put writes the document and returns its key.
func (a *Archive) Put(ctx context.Context, dmpID string, data []byte) (string, error) {
	key := a.Key(dmpID, a.Now())
	input := &s3.PutObjectInput{
		Body:        aws.ReadSeekCloser(bytes.NewReader(data)),
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String("application/json"),
	}
	if _, err := a.Client.PutObjectWithContext(ctx, input); err != nil {
		return "", errors.Wrapf(err, "failed to write `%s` to bucket `%s`", key, a.Bucket)
	}
	return key, nil
}

// Get reads the document stored under key.
func (a *Archive) Get(ctx context.Context, key string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(key),
	}
	res, err := a.Client.GetObjectWithContext(ctx, input)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read `%s` from bucket `%s`", key, a.Bucket)
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read `%s` from bucket `%s`", key, a.Bucket)
	}
	return body, nil
}

// List returns the keys of the documents of a DMP, oldest first.
func (a *Archive) List(ctx context.Context, dmpID string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(a.Bucket),
		Prefix: aws.String(a.KeyPrefix(dmpID)),
	}

	keys := []string{}
	err := a.Client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list bucket `%s`", a.Bucket)
	}
	return keys, nil
}
