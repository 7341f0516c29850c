package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureBlobSink uploads results as block blobs into one container.
type AzureBlobSink struct {
	client    *azblob.Client
	container string
}

func NewAzureBlobSink(accountName, accountKey, container string) (*AzureBlobSink, error) {
	return NewAzureBlobSinkWithServiceURL(fmt.Sprintf("https://%s.blob.core.windows.net/", accountName), accountName, accountKey, container)
}

// NewAzureBlobSinkWithServiceURL targets a custom blob endpoint such as Azurite.
func NewAzureBlobSinkWithServiceURL(serviceURL, accountName, accountKey, container string) (*AzureBlobSink, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureBlobSink{client: client, container: container}, nil
}

func (s *AzureBlobSink) Kind() string { return "azure" }

func (s *AzureBlobSink) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	blobName, err := objectName(name)
	if err != nil {
		return "", err
	}

	_, err = s.client.UploadBuffer(ctx, s.container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", blobName, err)
	}

	return strings.TrimSuffix(s.client.URL(), "/") + "/" + s.container + "/" + blobName, nil
}
