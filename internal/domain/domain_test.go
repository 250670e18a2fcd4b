package domain

import "testing"

func TestBatch_Balanced(t *testing.T) {
	tests := []struct {
		name string
		txs  []Transaction
		want bool
	}{
		{
			name: "purchase split balances",
			txs: []Transaction{
				{Direction: DirDebit, Amount: 100},
				{Direction: DirCredit, Amount: 90},
				{Direction: DirCredit, Amount: 10},
			},
			want: true,
		},
		{
			name: "credit leak",
			txs: []Transaction{
				{Direction: DirDebit, Amount: 100},
				{Direction: DirCredit, Amount: 90},
			},
			want: false,
		},
		{
			name: "top-up mints money",
			txs: []Transaction{
				{Direction: DirCredit, Amount: 90},
				{Direction: DirCredit, Amount: 10},
			},
			want: true,
		},
		{
			name: "empty",
			txs:  nil,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Batch{Transactions: tt.txs}
			if got := b.Balanced(); got != tt.want {
				t.Errorf("Balanced() = %v, want %v", got, tt.want)
			}
		})
	}
}
