// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"errors"
)

// Error kinds. Template-level kinds (ErrTemplateSyntax, ErrUnknownType) abort a whole template file,
// case-level kinds (ErrUnresolvedReference, ErrResolutionCycle, ErrEncoding) abort only one case.
var (
	ErrTemplateSyntax      = errors.New("template syntax error")
	ErrUnknownType         = errors.New("unknown argument type")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrResolutionCycle     = errors.New("resolution cycle")
	ErrEncoding            = errors.New("encoding error")
)

// IsCaseError says if err is confined to a single case, i.e. the batch should carry on.
func IsCaseError(err error) bool {
	return errors.Is(err, ErrUnresolvedReference) ||
		errors.Is(err, ErrResolutionCycle) ||
		errors.Is(err, ErrEncoding)
}
