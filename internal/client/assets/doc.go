// Package assets uploads cover images to a binary object store and returns
// the public URL the listing will reference.
//
// Two stores are provided: S3Store (presigned PUT against any S3-compatible
// endpoint) and ImageHostStore (an ImgBB-style multipart API). Exactly one
// is active, chosen by configuration. The store's own success flag decides
// the outcome; an HTTP 200 that says success=false is still a rejection.
package assets
