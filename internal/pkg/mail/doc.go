// Package mail sends transactional email through the Mail interface.
//
// SMTP is the only provider. Messages may carry a text body, an HTML body or
// both, in which case they go out as multipart/alternative.
package mail
