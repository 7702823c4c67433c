package session

import (
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	if got := store.Get(1); got != nil {
		t.Fatalf("пустое хранилище вернуло состояние: %+v", got)
	}

	store.Set(1, &State{Flow: FlowCreateName})

	got := store.Get(1)
	if got == nil {
		t.Fatal("состояние не сохранилось")
	}
	if got.Flow != FlowCreateName {
		t.Fatalf("неверный этап: %q", got.Flow)
	}

	// Состояния пользователей независимы
	if other := store.Get(2); other != nil {
		t.Fatalf("чужое состояние: %+v", other)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	store.Set(1, &State{Flow: FlowCreateName})
	store.Set(1, &State{Flow: FlowCreatePass, FamilyName: "Смирновы"})

	got := store.Get(1)
	if got == nil || got.Flow != FlowCreatePass || got.FamilyName != "Смирновы" {
		t.Fatalf("состояние не перезаписалось: %+v", got)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(time.Minute)

	store.Set(1, &State{Flow: FlowJoinName})
	store.Clear(1)

	if got := store.Get(1); got != nil {
		t.Fatalf("состояние пережило Clear: %+v", got)
	}

	// Clear несуществующего пользователя не паникует
	store.Clear(99)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)

	store.Set(1, &State{Flow: FlowAdminConfirmDelete, FamilyID: 5})

	time.Sleep(30 * time.Millisecond)

	if got := store.Get(1); got != nil {
		t.Fatalf("истёкшее состояние вернулось: %+v", got)
	}
}
