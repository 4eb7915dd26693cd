// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resource is a parsed input or output location: a local path or a gs://
// object.
type Resource struct {
	Scheme string
	Bucket string
	Name   string
}

func ParseResource(urlString string) (*Resource, error) {
	if !strings.Contains(urlString, "://") {
		return &Resource{Scheme: "file", Name: filepath.Clean(urlString)}, nil
	}

	thisUrl, err := url.Parse(urlString)
	if err != nil {
		return nil, err
	}

	switch thisUrl.Scheme {
	case "gs":
		return &Resource{
			Scheme: "gs",
			Bucket: thisUrl.Host,
			Name:   strings.TrimLeft(thisUrl.Path, "/"),
		}, nil
	case "file":
		return &Resource{
			Scheme: "file",
			Name:   filepath.Clean(fmt.Sprintf("%v/%v", thisUrl.Host, strings.TrimLeft(thisUrl.Path, "/"))),
		}, nil
	default:
		return nil, errors.New("bad url scheme")
	}
}

func (r *Resource) IsLocal() bool { return r.Scheme == "file" }

func (r *Resource) String() string {
	if r.Scheme == "gs" {
		return "gs://" + r.Bucket + "/" + r.Name
	}
	return r.Name
}

// Fetch makes a resource available as a local file. Remote objects are
// downloaded to a temporary file which cleanup removes.
func Fetch(ctx context.Context, urlString, credentials string) (localPath string, cleanup func(), err error) {
	res, err := ParseResource(urlString)
	if err != nil {
		return "", nil, err
	}
	if res.IsLocal() {
		if _, err := os.Stat(res.Name); err != nil {
			return "", nil, err
		}
		return res.Name, func() {}, nil
	}

	tmp, err := os.CreateTemp("", "rdi-*"+path.Ext(res.Name))
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { os.Remove(tmp.Name()) }

	err = downloadGcs(ctx, res.Bucket, res.Name, credentials, tmp)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("fetching %v: %w", res, err)
	}
	return tmp.Name(), cleanup, nil
}

// Exists reports whether a resource is present.
func Exists(ctx context.Context, urlString, credentials string) (bool, error) {
	res, err := ParseResource(urlString)
	if err != nil {
		return false, err
	}
	if res.IsLocal() {
		_, err := os.Stat(res.Name)
		if os.IsNotExist(err) {
			return false, nil
		}
		return err == nil, err
	}
	return existsGcs(ctx, res.Bucket, res.Name, credentials)
}

// Publish uploads a finished local file to a remote resource.
func Publish(ctx context.Context, localPath, urlString, credentials string) error {
	res, err := ParseResource(urlString)
	if err != nil {
		return err
	}
	if res.IsLocal() {
		return fmt.Errorf("publish target %v is not remote", res)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return uploadGcs(ctx, res.Bucket, res.Name, credentials, f)
}
