package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/chowkart/chowkart/internal/models"
)

// OrderRecord is the flattened parquet row for one delivered order.
type OrderRecord struct {
	OrderID         string  `parquet:"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	OrderNumber     string  `parquet:"name=order_number, type=BYTE_ARRAY, convertedtype=UTF8"`
	CustomerID      string  `parquet:"name=customer_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	VendorID        string  `parquet:"name=vendor_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	PartnerID       string  `parquet:"name=partner_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Pincode         string  `parquet:"name=pincode, type=BYTE_ARRAY, convertedtype=UTF8"`
	TotalAmount     float64 `parquet:"name=total_amount, type=DOUBLE"`
	DeliveryFee     float64 `parquet:"name=delivery_fee, type=DOUBLE"`
	PartnerEarnings float64 `parquet:"name=partner_earnings, type=DOUBLE"`
	DistanceKm      float64 `parquet:"name=distance_km, type=DOUBLE"`
	PaymentMethod   string  `parquet:"name=payment_method, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlacedAt        int64   `parquet:"name=placed_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	DeliveredAt     int64   `parquet:"name=delivered_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Rejections      int32   `parquet:"name=rejections, type=INT32"`
}

// DeliveredLister is the slice of the order store the archiver reads.
type DeliveredLister interface {
	ListDelivered(ctx context.Context, vendorID, partnerID string, from, to time.Time) ([]*models.Order, error)
}

// Archiver exports delivered orders as one parquet object per run,
// locally or to S3 depending on configuration.
type Archiver struct {
	orders  DeliveredLister
	factory CloudWriterFactory
	bucket  string
	folder  string
	log     *logrus.Logger
}

func NewArchiver(orders DeliveredLister, cfg *models.Config, log *logrus.Logger) (*Archiver, error) {
	a := &Archiver{
		orders: orders,
		folder: cfg.ArchiveFolder,
		log:    log,
	}
	if a.folder == "" {
		a.folder = "archive"
	}

	if cfg.ArchiveBucket != "" {
		factory, err := NewS3WriterFactory(cfg.ArchiveRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		a.factory = factory
		a.bucket = cfg.ArchiveBucket
	}
	return a, nil
}

// ExportDelivered writes every order delivered in [from, to) to one
// parquet object and returns its path. Zero times export everything.
func (a *Archiver) ExportDelivered(ctx context.Context, from, to time.Time) (string, error) {
	orders, err := a.orders.ListDelivered(ctx, "", "", from, to)
	if err != nil {
		return "", fmt.Errorf("failed to list delivered orders: %w", err)
	}

	objectPath := filepath.Join(a.folder, fmt.Sprintf("delivered_%s.parquet", time.Now().UTC().Format("20060102T150405")))
	fw, err := a.newFile(objectPath)
	if err != nil {
		return "", err
	}

	pw, err := writer.NewParquetWriter(fw, new(OrderRecord), 4)
	if err != nil {
		return "", fmt.Errorf("failed to create ParquetWriter: %w", err)
	}

	for _, order := range orders {
		if err := pw.Write(recordFor(order)); err != nil {
			return "", fmt.Errorf("failed to write order %s: %w", order.ID, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return "", fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive object: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"orders": len(orders),
		"object": objectPath,
	}).Info("delivered orders archived")

	return objectPath, nil
}

func (a *Archiver) newFile(objectPath string) (source.ParquetFile, error) {
	if a.factory != nil {
		cloudWriter, err := a.factory.NewWriter(a.bucket, objectPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud file writer: %w", err)
		}
		return NewCloudParquetFile(cloudWriter), nil
	}

	if err := os.MkdirAll(filepath.Dir(objectPath), 0o755); err != nil {
		return nil, err
	}
	fw, err := local.NewLocalFileWriter(objectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create local file writer: %w", err)
	}
	return fw, nil
}

func recordFor(order *models.Order) OrderRecord {
	rec := OrderRecord{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		VendorID:        order.VendorID,
		PartnerID:       order.DeliveryPartnerID,
		Pincode:         order.DeliveryAddress.Pincode,
		TotalAmount:     order.TotalAmount,
		DeliveryFee:     order.DeliveryDetails.DeliveryFee,
		PartnerEarnings: order.DeliveryDetails.PartnerEarnings,
		DistanceKm:      order.DeliveryDetails.DistanceKm,
		PaymentMethod:   order.PaymentMethod,
		Rejections:      int32(len(order.DeliveryDetails.Rejections)),
	}
	if at := order.Timestamps.PlacedAt; at != nil {
		rec.PlacedAt = at.UnixMilli()
	}
	if at := order.Timestamps.DeliveredAt; at != nil {
		rec.DeliveredAt = at.UnixMilli()
	}
	return rec
}
