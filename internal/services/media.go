package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/courseloom/courseloom-backend/internal/logger"
)

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

type MediaAsset struct {
	URL     string `json:"url"`
	AssetID string `json:"asset_id"`
}

// MediaService is the boundary to the asset host. Uploads take a local
// file path (the handler owns the temp file); deletes are keyed by the
// asset id returned at upload time.
type MediaService interface {
	Upload(ctx context.Context, localFilePath string) (*MediaAsset, error)
	Delete(ctx context.Context, assetID, kind string) error
}

type mediaService struct {
	log *logger.Logger
	cld *cloudinary.Cloudinary
}

func NewMediaService(log *logger.Logger, cloudName, apiKey, apiSecret string) (MediaService, error) {
	serviceLog := log.With("service", "MediaService")
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("missing cloudinary credentials")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary client: %w", err)
	}
	return &mediaService{log: serviceLog, cld: cld}, nil
}

func (ms *mediaService) Upload(ctx context.Context, localFilePath string) (*MediaAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	res, err := ms.cld.Upload.Upload(ctx, localFilePath, uploader.UploadParams{
		ResourceType: "auto",
	})
	if err != nil {
		ms.log.Error("Media upload failed", "error", err, "path", localFilePath)
		return nil, fmt.Errorf("upload media: %w", err)
	}
	return &MediaAsset{URL: res.SecureURL, AssetID: res.PublicID}, nil
}

func (ms *mediaService) Delete(ctx context.Context, assetID, kind string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	resourceType := MediaKindImage
	if kind == MediaKindVideo {
		resourceType = MediaKindVideo
	}
	res, err := ms.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     assetID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("delete media asset %q: %w", assetID, err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("delete media asset %q: result %q", assetID, res.Result)
	}
	return nil
}
