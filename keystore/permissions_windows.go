//go:build windows

// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package keystore

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Set ATTEST_ALLOW_INSECURE_KEY_PERMS=true to skip permission verification
// on Windows after checking the key file ACLs by hand.
const envAllowInsecureKeyPerms = "ATTEST_ALLOW_INSECURE_KEY_PERMS"

// checkOpenFilePermissions fails closed on Windows, where ACLs cannot be
// checked through file mode bits.
func checkOpenFilePermissions(f *os.File) error {
	if _, err := f.Stat(); err != nil {
		return fmt.Errorf("failed to stat key file %q: %w", f.Name(), err)
	}
	if strings.EqualFold(os.Getenv(envAllowInsecureKeyPerms), "true") {
		slog.Warn(
			"key file ACL verification bypassed via environment variable",
			"path", f.Name(),
			"env_var", envAllowInsecureKeyPerms,
		)
		return nil
	}
	return fmt.Errorf(
		"%w: ACL verification not implemented on Windows; set %s=true to bypass",
		ErrInsecureFileMode,
		envAllowInsecureKeyPerms,
	)
}
