package network

import (
	"fmt"
	"sync"
	"testing"
)

func TestAddressTable(t *testing.T) {
	tbl := NewAddressTable()

	if _, ok := tbl.Resolve("192.168.1.10"); ok {
		t.Fatal("empty table resolved an address")
	}

	tbl.Add("192.168.1.10", "00:1A:2B:3C:4D:5E")
	tbl.Add("192.168.1.11", "00:1A:2B:3C:4D:5F")

	mac, ok := tbl.Resolve("192.168.1.10")
	if !ok || mac != "00:1A:2B:3C:4D:5E" {
		t.Errorf("Resolve() = %q, %v", mac, ok)
	}

	// Upsert.
	tbl.Add("192.168.1.10", "AA:AA:AA:AA:AA:AA")
	if mac, _ := tbl.Resolve("192.168.1.10"); mac != "AA:AA:AA:AA:AA:AA" {
		t.Errorf("Add() did not replace binding, got %q", mac)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}

	tbl.Remove("192.168.1.10")
	if tbl.Exists("192.168.1.10") {
		t.Error("Exists() true after Remove()")
	}
	if !tbl.Exists("192.168.1.11") {
		t.Error("Exists() false for remaining entry")
	}

	// Removing an absent entry is a no-op.
	tbl.Remove("10.0.0.1")

	tbl.Clear()
	if tbl.Len() != 0 {
		t.Errorf("Len() after Clear() = %d", tbl.Len())
	}
}

func TestAddressTable_EntriesSorted(t *testing.T) {
	tbl := NewAddressTable()
	tbl.Add("192.168.1.97", "c")
	tbl.Add("192.168.1.10", "a")
	tbl.Add("192.168.1.65", "b")

	entries := tbl.Entries()
	want := []string{"192.168.1.10", "192.168.1.65", "192.168.1.97"}
	if len(entries) != len(want) {
		t.Fatalf("len(Entries()) = %d", len(entries))
	}
	for i, e := range entries {
		if e.IP != want[i] {
			t.Errorf("Entries()[%d].IP = %s, want %s", i, e.IP, want[i])
		}
	}
}

func TestAddressTable_Concurrent(t *testing.T) {
	tbl := NewAddressTable()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.0.0.%d", i)
			tbl.Add(ip, "mac")
			tbl.Exists(ip)
			tbl.Resolve(ip)
			if i%2 == 0 {
				tbl.Remove(ip)
			}
			tbl.Entries()
		}(i)
	}
	wg.Wait()

	if tbl.Len() != 25 {
		t.Errorf("Len() = %d, want 25", tbl.Len())
	}
}
