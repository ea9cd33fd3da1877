// Package azure provides a BlobStore for Azure Blob Storage.
//
// References have the form abs://container/key. Authentication uses a connection string when one is
// configured, otherwise the azidentity default credential chain against the account URL.
package azure
