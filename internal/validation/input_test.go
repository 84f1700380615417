package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("  Ash@Pallet.town "))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("ash.pallet.town"))
	assert.Error(t, ValidateEmail("ash@pallet"))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("ash_ketchum"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("1ash"))
	assert.Error(t, ValidateUsername("ash ketchum"))
}

func TestValidateMessageContent_CountsRunes(t *testing.T) {
	assert.NoError(t, ValidateMessageContent(strings.Repeat("ё", MaxMessageLength)))
	assert.Error(t, ValidateMessageContent(strings.Repeat("ё", MaxMessageLength+1)))
	assert.Error(t, ValidateMessageContent("   "))
}

func TestValidateReason(t *testing.T) {
	assert.NoError(t, ValidateReason("покупатель не вышел на связь"))
	assert.Error(t, ValidateReason(" \t\n"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Pikachu25"))
	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("nouppercase1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
	assert.Error(t, ValidatePassword(strings.Repeat("Aa1", 30)))
}
