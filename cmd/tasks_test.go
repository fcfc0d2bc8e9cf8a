package cmd

import (
	"errors"
	"reflect"
	"testing"

	"ringtoned/core/scheduler"
)

func TestParseDays(t *testing.T) {
	got, err := parseDays(" 1, 3,,5 ")
	if err != nil {
		t.Fatalf("parseDays error: %v", err)
	}
	if want := []int{1, 3, 5}; !reflect.DeepEqual(got, want) {
		t.Fatalf("parseDays = %v, want %v", got, want)
	}

	if _, err := parseDays("mon"); !errors.Is(err, scheduler.ErrInvalidDay) {
		t.Fatalf("err = %v, want ErrInvalidDay", err)
	}
}
