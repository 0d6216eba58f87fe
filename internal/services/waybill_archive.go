package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/minio/minio-go/v7"

	"velora_back_end/internal/database"
)

// WaybillBucket : bucket MinIO des bordereaux d'expédition
func WaybillBucket() string {
	if b := os.Getenv("MINIO_WAYBILL_BUCKET"); b != "" {
		return b
	}
	return "waybills"
}

// MinioWaybillArchive archive les bordereaux PDF du transporteur.
// Un bordereau est immuable : une fois archivé, on ne redemande jamais le
// document au transporteur.
type MinioWaybillArchive struct{}

func NewMinioWaybillArchive() *MinioWaybillArchive {
	return &MinioWaybillArchive{}
}

func (a *MinioWaybillArchive) Get(ctx context.Context, trackingNumber string) ([]byte, error) {
	if database.MinIO == nil {
		return nil, fmt.Errorf("MinIO non initialisé")
	}

	obj, err := database.MinIO.GetObject(ctx, WaybillBucket(), objectName(trackingNumber), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("bordereau %s absent de l'archive", trackingNumber)
	}
	return data, nil
}

func (a *MinioWaybillArchive) Put(ctx context.Context, trackingNumber string, pdf []byte) error {
	if database.MinIO == nil {
		return fmt.Errorf("MinIO non initialisé")
	}

	_, err := database.MinIO.PutObject(ctx, WaybillBucket(), objectName(trackingNumber),
		bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return err
	}
	log.Printf("📦 Bordereau %s archivé dans MinIO", trackingNumber)
	return nil
}

func objectName(trackingNumber string) string {
	return fmt.Sprintf("waybill_%s.pdf", trackingNumber)
}
