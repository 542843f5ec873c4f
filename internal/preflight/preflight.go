// Package preflight inspects blob storage addresses before azcopy runs.
// Nothing here copies data.
package preflight

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Location is the credential-free view of an address, safe to log.
type Location struct {
	Host      string
	Container string
	Path      string
}

// Fields returns the location as log fields under prefix.
func (l Location) Fields(prefix string) log.Fields {
	return log.Fields{
		prefix + "_host":      l.Host,
		prefix + "_container": l.Container,
		prefix + "_path":      l.Path,
	}
}

// Describe splits address into host, container and blob path.
func Describe(address string) (Location, error) {
	parts, err := sas.ParseURL(address)
	if err != nil {
		return Location{}, errors.Wrap(err, "invalid storage address")
	}
	return Location{
		Host:      parts.Host,
		Container: parts.ContainerName,
		Path:      parts.BlobName,
	}, nil
}

// ContainerURL returns the container-level URL for address with credential attached.
func ContainerURL(address, credential string) (string, error) {
	parts, err := sas.ParseURL(address + "?" + credential)
	if err != nil {
		return "", errors.Wrap(err, "invalid storage address")
	}
	if parts.ContainerName == "" {
		return "", errors.New("storage address names no container")
	}
	parts.BlobName = ""
	parts.Snapshot = ""
	parts.VersionID = ""
	return parts.String(), nil
}

// Role says which end of the transfer an address is.
type Role string

const (
	RoleSource      Role = "source"
	RoleDestination Role = "dest"
)

// Error reports that a container or blob did not pass the check.
type Error struct {
	Container  string
	Blob       string
	StatusCode int
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	target := fmt.Sprintf("container %q", e.Container)
	if e.Blob != "" {
		target = fmt.Sprintf("blob %q in container %q", e.Blob, e.Container)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("preflight check of %s failed: %s (HTTP %d)", target, e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("preflight check of %s failed: %s", target, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

var clientOptions = azcore.ClientOptions{
	Retry: policy.RetryOptions{MaxRetries: -1},
}

// Check confirms that azcopy can reach address with credential.
// It makes at most one request and does not retry.
//
// A blob-scoped credential (sr=b) cannot read its container, so the source
// blob is checked instead and a destination is not checked at all. A missing
// destination container passes, since azcopy creates it.
func Check(ctx context.Context, logger *log.Entry, role Role, address, credential string) error {
	parts, err := sas.ParseURL(address + "?" + credential)
	if err != nil {
		return errors.Wrap(err, "invalid storage address")
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	loc, _ := Describe(address)
	logger = logger.WithFields(loc.Fields(string(role)))

	if parts.SAS.Resource() == "b" {
		if role == RoleDestination {
			logger.Debug("blob-scoped destination credential, skipping preflight")
			return nil
		}
		return checkBlob(ctx, logger, address+"?"+credential, loc)
	}
	return checkContainer(ctx, logger, role, address, credential, loc)
}

func checkBlob(ctx context.Context, logger *log.Entry, blobURL string, loc Location) error {
	client, err := blob.NewClientWithNoCredential(blobURL, &blob.ClientOptions{ClientOptions: clientOptions})
	if err != nil {
		return errors.Wrap(err, "failed to create blob client")
	}
	if _, err := client.GetProperties(ctx, nil); err != nil {
		perr := classify(loc.Container, err)
		perr.Blob = loc.Path
		return perr
	}
	logger.Debug("preflight check passed")
	return nil
}

func checkContainer(ctx context.Context, logger *log.Entry, role Role, address, credential string, loc Location) error {
	containerURL, err := ContainerURL(address, credential)
	if err != nil {
		return err
	}
	client, err := container.NewClientWithNoCredential(containerURL, &container.ClientOptions{ClientOptions: clientOptions})
	if err != nil {
		return errors.Wrap(err, "failed to create container client")
	}

	if _, err := client.GetProperties(ctx, nil); err != nil {
		perr := classify(loc.Container, err)
		if role == RoleDestination && perr.Reason == reasonContainerNotFound {
			logger.Info("destination container does not exist yet, azcopy will create it")
			return nil
		}
		return perr
	}
	logger.Debug("preflight check passed")
	return nil
}

const (
	reasonContainerNotFound = "container not found"
	reasonBlobNotFound      = "blob not found"
	reasonRejected          = "credential rejected"
)

func classify(containerName string, err error) *Error {
	perr := &Error{Container: containerName, Reason: "request failed", Err: err}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		perr.StatusCode = respErr.StatusCode
	}

	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound):
		perr.Reason = reasonContainerNotFound
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ResourceNotFound):
		perr.Reason = reasonBlobNotFound
	case bloberror.HasCode(err,
		bloberror.AuthenticationFailed,
		bloberror.AuthorizationFailure,
		bloberror.AuthorizationPermissionMismatch):
		perr.Reason = reasonRejected
	case perr.StatusCode == http.StatusNotFound:
		perr.Reason = reasonContainerNotFound
	case perr.StatusCode == http.StatusForbidden:
		perr.Reason = reasonRejected
	}
	return perr
}
