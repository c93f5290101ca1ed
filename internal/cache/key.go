package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/futig/diagram-backend/internal/entity"
)

// Key derives a deterministic cache key for a generation request.
//
// The instruction is normalized (trimmed, lowercased, inner whitespace
// collapsed) so that cosmetic differences hash identically. Reference files
// contribute only their identity (name and size), never their content; two
// requests with byte-different file contents but matching identities share a
// key. Conversation history contributes its turn count only.
func Key(req *entity.GenerationRequest) string {
	instruction := strings.ToLower(strings.Join(strings.Fields(req.Instruction), " "))

	files := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, fmt.Sprintf("%s:%d", f.Name, f.Size))
	}
	sort.Strings(files)

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("|turns=")
	fmt.Fprintf(&b, "%d", len(req.Conversation))
	b.WriteString("|files=")
	b.WriteString(strings.Join(files, ","))
	b.WriteString("|artifacts=")
	fmt.Fprintf(&b, "%d", len(req.PriorArtifacts))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
