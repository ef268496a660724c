package serialize

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/sbl8/dpuforge/model"
	"github.com/sbl8/dpuforge/schedule"
)

// TaskRecord is the on-wire form of one schedule.ScheduledTask, plus
// its expanded DMA subtasks when it is a DMATask (§4.5 DMA emission
// rule table).
type TaskRecord struct {
	Op        model.OpHandle
	Name      string
	Kind      schedule.TaskKind
	Tensor    model.TensorHandle
	StartTime int32
	EndTime   int32

	Compression bool
	DMASubtasks []DMASubtask
}

func taskRecordFrom(g *model.Graph, task schedule.ScheduledTask, clusters int) (TaskRecord, error) {
	rec := TaskRecord{
		Op:        task.Op,
		Name:      task.Name,
		Kind:      task.Kind,
		Tensor:    task.Tensor,
		StartTime: int32(task.StartTime),
		EndTime:   int32(task.EndTime),
	}
	if !task.Op.Valid() {
		return rec, nil
	}
	op, err := g.Op(task.Op)
	if err != nil {
		return rec, err
	}
	if op.Kind != model.OpKindDMATask {
		return rec, nil
	}
	if dma, ok := op.Attrs.DMA(); ok {
		rec.Compression = dma.Compression
	}
	if len(op.Outputs) > 0 {
		if t, terr := g.Tensor(op.Outputs[0]); terr == nil && shouldCompress(t) {
			rec.Compression = true
		}
	}
	subtasks, err := ClassifyDMA(g, op, clusters)
	if err != nil {
		return rec, err
	}
	rec.DMASubtasks = subtasks
	return rec, nil
}

func (rec TaskRecord) emit(buf *bytes.Buffer) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(rec.Op)); err != nil {
		return err
	}
	if err := writeString(buf, rec.Name); err != nil {
		return err
	}
	if err := buf.WriteByte(byte(rec.Kind)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(rec.Tensor)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, rec.StartTime); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, rec.EndTime); err != nil {
		return err
	}
	if err := writeBool(buf, rec.Compression); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(rec.DMASubtasks))); err != nil {
		return err
	}
	for _, s := range rec.DMASubtasks {
		if err := binary.Write(buf, binary.LittleEndian, uint16(len(s.Clusters))); err != nil {
			return err
		}
		for _, c := range s.Clusters {
			if err := binary.Write(buf, binary.LittleEndian, int32(c)); err != nil {
				return err
			}
		}
		if err := buf.WriteByte(byte(s.Sparsity)); err != nil {
			return err
		}
	}
	return nil
}

func parseTaskRecord(r io.Reader) (TaskRecord, error) {
	var rec TaskRecord
	var op uint32
	if err := binary.Read(r, binary.LittleEndian, &op); err != nil {
		return rec, err
	}
	rec.Op = model.OpHandle(op)

	name, err := readString(r)
	if err != nil {
		return rec, err
	}
	rec.Name = name

	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return rec, err
	}
	rec.Kind = schedule.TaskKind(kind[0])

	var tensor uint32
	if err := binary.Read(r, binary.LittleEndian, &tensor); err != nil {
		return rec, err
	}
	rec.Tensor = model.TensorHandle(tensor)

	if err := binary.Read(r, binary.LittleEndian, &rec.StartTime); err != nil {
		return rec, err
	}
	if err := binary.Read(r, binary.LittleEndian, &rec.EndTime); err != nil {
		return rec, err
	}
	compression, err := readBool(r)
	if err != nil {
		return rec, err
	}
	rec.Compression = compression

	var subtaskCount uint16
	if err := binary.Read(r, binary.LittleEndian, &subtaskCount); err != nil {
		return rec, err
	}
	for i := uint16(0); i < subtaskCount; i++ {
		var clusterCount uint16
		if err := binary.Read(r, binary.LittleEndian, &clusterCount); err != nil {
			return rec, err
		}
		clusters := make([]int, clusterCount)
		for j := range clusters {
			var c int32
			if err := binary.Read(r, binary.LittleEndian, &c); err != nil {
				return rec, err
			}
			clusters[j] = int(c)
		}
		var sparsity [1]byte
		if _, err := io.ReadFull(r, sparsity[:]); err != nil {
			return rec, err
		}
		rec.DMASubtasks = append(rec.DMASubtasks, DMASubtask{Clusters: clusters, Sparsity: int(sparsity[0])})
	}
	return rec, nil
}
