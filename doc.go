// Package nvd is a hardware video decode driver: it exposes a VA-style
// surface of configs, contexts, surfaces, buffers and images, and translates
// it onto the NVDEC decode API.
//
// Key pieces include:
//   - Driver entry points (Open/Terminate, config negotiation, capability
//     queries) with process-wide instance admission control
//   - Decode contexts with a BeginPicture/RenderPicture/EndPicture cycle and
//     a per-context resolver goroutine mapping finished frames
//   - Per-codec buffer handlers (MPEG-2/4, VC-1, H.264, HEVC, VP8, VP9, AV1,
//     JPEG) registered at init time
//   - Surface readback (GetImage) and DRM PRIME export through a pluggable
//     backing-store backend
//   - An H.264 RTP feeder that drives the picture cycle from pion/rtp packets
//
// # Native Libraries
//
// The hardware bindings load libcuda and libnvcuvid at runtime via purego;
// nothing links at build time. Set NVD_CUDA_LIB_PATH or NVD_CUVID_LIB_PATH
// to override the library search. Tests substitute DriverConfig.API with a
// fake and never touch hardware.
//
// # Environment
//
//   - NVD_LOG: unset disables logging, "1" logs to stdout, anything else is
//     an append-mode log file path
//   - NVD_GPU: device ordinal, default -1 (first device)
//   - NVD_MAX_INSTANCES: cap on concurrent driver instances, 0 = unlimited
//   - NVD_BACKEND: "direct" (default) or "egl"
package nvd
