package maths

import (
	"fmt"
	"strings"
)

// BlockVector 分块向量：整体为一个连续存储的稠密向量，每个块是其上的视图。
// 谐波平衡中时域向量按采样点分块，频域向量按未知量分块。
type BlockVector struct {
	Vector             // 整体向量
	blocks    []Vector // 块视图（共享底层存储）
	blockSize int      // 块大小
}

// NewBlockVector 创建 blockCount 个长度为 blockSize 的分块向量
func NewBlockVector(blockCount, blockSize int) *BlockVector {
	return AsBlockVector(NewDenseVector(blockCount*blockSize), blockCount)
}

// AsBlockVector 将已有向量按 blockCount 等分为块视图，不复制数据
func AsBlockVector(v Vector, blockCount int) *BlockVector {
	if blockCount <= 0 || v.Length()%blockCount != 0 {
		panic(fmt.Sprintf("无法将长度 %d 的向量分为 %d 块", v.Length(), blockCount))
	}
	data := v.ToDense()
	size := len(data) / blockCount
	bv := &BlockVector{Vector: v, blocks: make([]Vector, blockCount), blockSize: size}
	for i := range bv.blocks {
		bv.blocks[i] = NewDenseVectorWithData(data[i*size : (i+1)*size : (i+1)*size])
	}
	return bv
}

// Block 返回第 i 块
func (bv *BlockVector) Block(i int) Vector { return bv.blocks[i] }

// BlockCount 块数量
func (bv *BlockVector) BlockCount() int { return len(bv.blocks) }

// BlockSize 块大小
func (bv *BlockVector) BlockSize() int { return bv.blockSize }

// CloneBlock 深拷贝并保持分块结构
func (bv *BlockVector) CloneBlock() *BlockVector {
	return AsBlockVector(bv.Vector.Clone(), len(bv.blocks))
}

// String 逐块输出
func (bv *BlockVector) String() string {
	var sb strings.Builder
	for i, b := range bv.blocks {
		fmt.Fprintf(&sb, "block(%d) = %s\n", i, b.String())
	}
	return sb.String()
}
