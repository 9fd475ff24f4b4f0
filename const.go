package icurve

const (
	boundaryHalvings = 40   // step halvings tried while approaching a partition boundary
	nudgeDoublings   = 60   // Euler step doublings tried when stepping out of a partition
	boundaryTol      = 1e-9 // relative to the partition diagonal
	defaultRetries   = 50   // adaptive step rejections before a step is declared stiff
	defaultWorkers   = 1
)
