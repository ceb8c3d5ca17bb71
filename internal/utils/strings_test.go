package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	assert.Nil(t, ParseCSV(""))
	assert.Nil(t, ParseCSV(" , ,"))
	assert.Equal(t, []string{"AAPL"}, ParseCSV("aapl"))
	assert.Equal(t, []string{"AAPL", "MSFT", "KO"}, ParseCSV(" aapl, MSFT ,ko "))
}
