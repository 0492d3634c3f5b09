package memory

import (
	"github.com/rs/zerolog/log"

	"netexam/internal/domain"
)

// Directory is a fixed in-memory roster with exact-match authentication.
type Directory struct {
	secrets map[string]string
}

func NewDirectory(roster []domain.Credential) *Directory {
	secrets := make(map[string]string, len(roster))
	for _, c := range roster {
		secrets[c.ID] = c.Secret
	}
	return &Directory{secrets: secrets}
}

// Authenticate reports whether id exists and secret matches exactly.
// Unknown ids and wrong secrets are indistinguishable to the caller.
func (d *Directory) Authenticate(id, secret string) bool {
	stored, ok := d.secrets[id]
	if !ok || stored != secret {
		log.Info().Str("participant", id).Msg("login rejected")
		return false
	}
	log.Info().Str("participant", id).Msg("login accepted")
	return true
}

// Size is the number of registered participants.
func (d *Directory) Size() int {
	return len(d.secrets)
}
