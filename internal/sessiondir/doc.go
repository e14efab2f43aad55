// Package sessiondir defines the on-disk layout of capture sessions: the
// date-keyed directory scheme (shot_root/YYYY/MM/DD), frame and movie file
// naming, discovery of existing session directories, and the per-directory
// advisory lock that serializes critical-section writers.
package sessiondir
