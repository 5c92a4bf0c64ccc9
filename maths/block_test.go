package maths

import "testing"

// TestBlockVectorViews 块视图与整体向量共享存储
func TestBlockVectorViews(t *testing.T) {
	bv := NewBlockVector(3, 2)
	if bv.Length() != 6 || bv.BlockCount() != 3 || bv.BlockSize() != 2 {
		t.Fatalf("unexpected shape: len=%d blocks=%d size=%d", bv.Length(), bv.BlockCount(), bv.BlockSize())
	}
	bv.Block(1).Set(0, 7)
	if bv.Get(2) != 7 {
		t.Errorf("block view not shared, got %f", bv.Get(2))
	}
	bv.Set(5, 9)
	if bv.Block(2).Get(1) != 9 {
		t.Errorf("global write not visible in block, got %f", bv.Block(2).Get(1))
	}

	c := bv.CloneBlock()
	c.Block(1).Set(0, -1)
	if bv.Block(1).Get(0) != 7 {
		t.Errorf("CloneBlock shares storage")
	}
}

// TestAsBlockVectorPanics 长度不能整除块数时应 panic
func TestAsBlockVectorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic")
		}
	}()
	AsBlockVector(NewDenseVector(5), 2)
}
