// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

func gcsClient(ctx context.Context, credentials string) (*storage.Client, error) {
	var opts []option.ClientOption
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	return storage.NewClient(ctx, opts...)
}

func downloadGcs(ctx context.Context, bucket, name string, credentials string, dst io.Writer) error {
	client, err := gcsClient(ctx, credentials)
	if err != nil {
		return err
	}
	defer client.Close()

	objectReader, err := client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return err
	}
	defer objectReader.Close()

	_, err = io.Copy(dst, objectReader)
	return err
}

func uploadGcs(ctx context.Context, bucket, name string, credentials string, src io.Reader) error {
	client, err := gcsClient(ctx, credentials)
	if err != nil {
		return err
	}
	defer client.Close()

	objectWriter := client.Bucket(bucket).Object(name).NewWriter(ctx)
	if _, err := io.Copy(objectWriter, src); err != nil {
		objectWriter.Close()
		return err
	}
	return objectWriter.Close()
}

func existsGcs(ctx context.Context, bucket, name string, credentials string) (bool, error) {
	client, err := gcsClient(ctx, credentials)
	if err != nil {
		return false, err
	}
	defer client.Close()

	_, err = client.Bucket(bucket).Object(name).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
