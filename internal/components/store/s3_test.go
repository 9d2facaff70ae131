package store

import (
	"context"
	"cqscraper/internal/components/telemetry"
	"io"
	"log"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestS3(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping minio container in short mode")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	minio, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:RELEASE.2024-07-16T23-46-41Z",
			Cmd:          []string{"server", "/data"},
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := minio.Terminate(ctx)
		if err != nil {
			t.Fatal(err)
		}
	}()

	host, err := minio.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := minio.MappedPort(ctx, "9000/tcp")
	if err != nil {
		t.Fatal(err)
	}

	s, err := NewS3(S3Options{
		Endpoint:  host + ":" + port.Port(),
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "problems",
	}, &telemetry.Recorder{})
	if err != nil {
		t.Fatal(err)
	}
	err = s.EnsureBucket(ctx)
	if err != nil {
		t.Fatal(err)
	}

	testStore(t, s)
}
