package pollstore

import (
	"testing"

	"github.com/unitdag/unitd/domain/consensus/database"
	"github.com/unitdag/unitd/domain/consensus/model"
	"github.com/unitdag/unitd/domain/consensus/utils/testutils"
)

func TestPollStore(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := New()
	pollUnit := testutils.HashOf(1)

	_, err := store.Poll(db, pollUnit)
	if !database.IsNotFoundError(err) {
		t.Fatalf("expected a not found error, got %+v", err)
	}
	err = store.InsertPoll(db, &model.PollRecord{Unit: pollUnit, Question: "color?", Choices: []string{"red", "blue"}})
	if err != nil {
		t.Fatalf("InsertPoll: %+v", err)
	}
	poll, err := store.Poll(db, pollUnit)
	if err != nil {
		t.Fatalf("Poll: %+v", err)
	}
	if poll.Question != "color?" || len(poll.Choices) != 2 {
		t.Fatalf("unexpected poll %+v", poll)
	}

	for i, choice := range []string{"red", "blue", "red"} {
		err := store.InsertVote(db, &model.VoteRecord{Unit: testutils.HashOf(byte(10 + i)), PollUnit: pollUnit, Choice: choice})
		if err != nil {
			t.Fatalf("InsertVote: %+v", err)
		}
	}
	votes, err := store.Votes(db, pollUnit)
	if err != nil {
		t.Fatalf("Votes: %+v", err)
	}
	if len(votes) != 3 || votes[1].Choice != "blue" {
		t.Fatalf("unexpected votes %+v", votes)
	}
}
