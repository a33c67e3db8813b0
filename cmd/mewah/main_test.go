package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadyLineKeepsSubSecondPrecision(t *testing.T) {
	assert.Equal(t, "3 component stores in 250ms", readyLine(3, 250*time.Millisecond+400*time.Microsecond))
	assert.Equal(t, "0 component stores in 1.5s", readyLine(0, 1500*time.Millisecond))
}
