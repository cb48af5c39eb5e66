/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package segment

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/shmseg/internal/shm"
)

// ConnectWithRetry calls Connect until it succeeds, b gives up, or ctx is
// done. Sizing failures, invalid names and unsupported platforms are not
// retried. A nil b means an exponential backoff with the library defaults.
//
// The waiting happens here, between attempts; Connect itself never blocks on
// anything but the OS.
func (h *Handle[T]) ConnectWithRetry(ctx context.Context, b backoff.BackOff) error {
	if b == nil {
		b = backoff.NewExponentialBackOff()
	}
	op := func() error {
		err := h.Connect(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrSizing) || errors.Is(err, ErrInvalidName) || errors.Is(err, shm.ErrUnsupported) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		h.logger.Warnf("segment %q: connect attempt failed, retrying in %s: %v", h.name, wait, err)
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}
