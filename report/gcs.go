// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSSink uploads each record as a markdown object to a Cloud Storage
// bucket.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSSink returns a sink writing to gs://bucket/prefix/.
func NewGCSSink(client *storage.Client, bucket, prefix string) (*GCSSink, error) {
	if client == nil {
		return nil, errors.New("report: storage client is required")
	}
	if bucket == "" {
		return nil, errors.New("report: bucket is required")
	}
	return &GCSSink{client: client, bucket: bucket, prefix: prefix}, nil
}

// Save uploads the record. Like [FileSink] it never replaces an existing
// object: a taken name gets a numeric suffix.
func (s *GCSSink) Save(ctx context.Context, rec Record) (string, error) {
	data := []byte(Markdown(rec))
	base := BaseName(rec)
	for n := 1; n <= maxCollisions; n++ {
		name := base + ".md"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.md", base, n)
		}
		name = path.Join(s.prefix, name)
		url := "gs://" + s.bucket + "/" + name

		err := s.upload(ctx, name, data)
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			continue
		}
		if err != nil {
			return "", &PersistenceError{Sink: "gcs", Path: url, Err: err}
		}
		return url, nil
	}
	return "", &PersistenceError{Sink: "gcs", Err: fmt.Errorf("no free object name after %d attempts", maxCollisions)}
}

func (s *GCSSink) upload(ctx context.Context, name string, data []byte) error {
	obj := s.client.Bucket(s.bucket).Object(name).If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = "text/markdown; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
