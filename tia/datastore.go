package tia

import "hbcircuit/maths"

// HistoryPoint 一个已接受时间步的快照
type HistoryPoint struct {
	Time       float64
	Breakpoint bool
	Solution   maths.Vector
	State      maths.Vector
	Charge     maths.Vector
	Store      maths.Vector
}

// DataStore 各分析共享的解/状态/存储向量，以及快速时间历史。
type DataStore struct {
	NextSolution maths.Vector
	CurrSolution maths.Vector
	NextState    maths.Vector
	CurrState    maths.Vector
	NextStore    maths.Vector
	CurrStore    maths.Vector
	NextQ        maths.Vector
	CurrQ        maths.Vector

	history []HistoryPoint
}

// NewDataStore 按器件规模创建
func NewDataStore(n, nState, nStore int) *DataStore {
	ds := &DataStore{}
	ds.Allocate(n, nState, nStore)
	return ds
}

// Allocate 长度不一致的向量重新分配并清零，长度一致的保留原值
func (ds *DataStore) Allocate(n, nState, nStore int) {
	fit := func(v *maths.Vector, size int) {
		if *v == nil || (*v).Length() != size {
			*v = maths.NewDenseVector(size)
		}
	}
	fit(&ds.NextSolution, n)
	fit(&ds.CurrSolution, n)
	fit(&ds.NextQ, n)
	fit(&ds.CurrQ, n)
	fit(&ds.NextState, nState)
	fit(&ds.CurrState, nState)
	fit(&ds.NextStore, nStore)
	fit(&ds.CurrStore, nStore)
}

// ResetFastTimeData 丢弃快速时间历史
func (ds *DataStore) ResetFastTimeData() { ds.history = nil }

// TakeFastTimeData 移出快速时间历史，数据存储不再持有
func (ds *DataStore) TakeFastTimeData() []HistoryPoint {
	h := ds.history
	ds.history = nil
	return h
}

// FastTimeDataLen 当前历史长度
func (ds *DataStore) FastTimeDataLen() int { return len(ds.history) }

// AddFastTimePoint 追加一个历史点
func (ds *DataStore) AddFastTimePoint(p HistoryPoint) { ds.history = append(ds.history, p) }

// recordFastTime 追加当前 Curr* 的快照
func (ds *DataStore) recordFastTime(t float64, breakpoint bool) {
	ds.AddFastTimePoint(HistoryPoint{
		Time:       t,
		Breakpoint: breakpoint,
		Solution:   ds.CurrSolution.Clone(),
		State:      ds.CurrState.Clone(),
		Charge:     ds.CurrQ.Clone(),
		Store:      ds.CurrStore.Clone(),
	})
}

// markLastBreakpoint 将最后一个历史点标记为断点
func (ds *DataStore) markLastBreakpoint() {
	if n := len(ds.history); n > 0 {
		ds.history[n-1].Breakpoint = true
	}
}
