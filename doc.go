// Package icurve advects integral curves (streamlines and pathlines) through
// vector fields sampled on partitioned meshes.
//
// A Field interpolates one mesh partition. DirectField reads point- or
// cell-centred vector data and OffsetField decorates it for staggered data
// whose components live at shifted positions. A Solver advances a curve's
// IVPState one step at a time, and Curve.Advect drives a single curve until it
// terminates or leaves the cells its partition owns. The Assembler runs
// batches of curves over a Domain with a worker pool per partition, handing
// curves between partitions as they cross, and BuildPolylines and ScalarTrace
// turn the finished curves into output.
package icurve
