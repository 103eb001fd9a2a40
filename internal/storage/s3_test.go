// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Integration tests against an S3-compatible server. Skipped unless
// S3_ENDPOINT and credentials are set in the environment.
package storage

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

// testClient builds a client from the environment, skipping when no
// S3-compatible server is configured.
func testClient(t *testing.T) *Client {
	t.Helper()

	endpoint := os.Getenv("S3_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	if endpoint == "" || accessKey == "" {
		t.Skip("skipping: S3_ENDPOINT not configured")
	}

	region := os.Getenv("S3_REGION")
	if region == "" {
		region = "eu-central-1"
	}
	bucket := os.Getenv("S3_PRIVATE_BUCKET")
	if bucket == "" {
		bucket = "growthgate-test"
	}

	client, err := New(endpoint, region, accessKey, secretKey, bucket)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return client
}

func TestNewUnconfiguredReturnsNil(t *testing.T) {
	client, err := New("", "", "", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client != nil {
		t.Error("expected nil client without endpoint and credentials")
	}
}

func TestUploadPresignDeleteRoundTrip(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	const key = "assets/storage-test-guia.pdf"
	const content = "contenido del recurso de prueba"

	if err := client.Upload(ctx, key, "application/pdf", strings.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("upload: %v", err)
	}
	t.Cleanup(func() { client.Delete(ctx, key) })

	// The presigned URL must serve the object without credentials.
	url, err := client.PresignDownload(ctx, key)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("fetch presigned: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("presigned fetch status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != content {
		t.Errorf("presigned content: got %q", body)
	}

	// After delete the presigned link goes stale.
	if err := client.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	url, err = client.PresignDownload(ctx, key)
	if err != nil {
		t.Fatalf("presign after delete: %v", err)
	}
	resp, err = http.Get(url)
	if err != nil {
		t.Fatalf("fetch after delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("deleted object still served")
	}
}
