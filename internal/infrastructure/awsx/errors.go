// Package awsx maps AWS SDK failures onto the service error taxonomy.
package awsx

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"

	"github.com/upcastmedia/vodpipe/internal/apperr"
)

// WrapUpstream classifies an SDK error from an outbound call named op.
// Deadline expiry becomes an upstream timeout; everything else is a plain
// upstream failure.
func WrapUpstream(op string, err error) error {
	var ae awserr.Error
	if errors.As(err, &ae) && ae.Code() == request.CanceledErrorCode {
		if errors.Is(ae.OrigErr(), context.DeadlineExceeded) {
			return apperr.Wrap(apperr.UpstreamTimeout, op+" timed out", err)
		}
		return apperr.Wrap(apperr.Upstream, op+" canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.UpstreamTimeout, op+" timed out", err)
	}
	return apperr.Wrap(apperr.Upstream, op, err)
}

// HasCode reports whether err is an AWS error with the given code.
func HasCode(err error, code string) bool {
	var ae awserr.Error
	return errors.As(err, &ae) && ae.Code() == code
}
